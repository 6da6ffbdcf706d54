// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithConfig(&ClientConfig{
		BaseURL:           srv.URL + "/",
		Timeout:           2 * time.Second,
		RequestsPerSecond: 1000,
	})
}

// wavClip builds a minimal PCM WAV file with n zero samples.
func wavClip(n int) []byte {
	data := make([]byte, 44+2*n)
	copy(data[0:], "RIFF")
	binary.LittleEndian.PutUint32(data[4:], uint32(36+2*n))
	copy(data[8:], "WAVE")
	copy(data[12:], "fmt ")
	binary.LittleEndian.PutUint32(data[16:], 16)
	binary.LittleEndian.PutUint16(data[20:], 1)
	binary.LittleEndian.PutUint16(data[22:], 1)
	binary.LittleEndian.PutUint32(data[24:], 16000)
	binary.LittleEndian.PutUint32(data[28:], 32000)
	binary.LittleEndian.PutUint16(data[32:], 2)
	binary.LittleEndian.PutUint16(data[34:], 16)
	copy(data[36:], "data")
	binary.LittleEndian.PutUint32(data[40:], uint32(2*n))
	return data
}

// =============================================================================
// PROCESS TEXT
// =============================================================================

func TestProcessText_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/process-text", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req ProcessTextRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		assert.Equal(t, "vendí 2 coca a Juan", req.Text)

		_, _ = io.WriteString(w, `{
			"status": "success",
			"transcript": "vendí 2 coca a Juan",
			"order": {"tipo": "orden", "cliente": "Juan",
				"items": [{"producto": "coca cola", "cantidad": 2, "precio_unitario": "100.50"}]},
			"ticket_id": "T-1",
			"processing_time_ms": 42
		}`)
	})

	resp, err := client.ProcessText(context.Background(), "vendí 2 coca a Juan")
	require.NoError(t, err)
	require.NotNil(t, resp.Order)
	assert.False(t, resp.IsError())
	assert.Equal(t, OrderSale, resp.Order.Kind())
	assert.Equal(t, "T-1", resp.TicketID)
	assert.EqualValues(t, 42, resp.ProcessingTimeMs)

	require.Len(t, resp.Order.Items, 1)
	item := resp.Order.Items[0]
	assert.True(t, item.Cantidad.Valid)
	assert.Equal(t, "2", item.Cantidad.Decimal.String())
	assert.Equal(t, "100.5", item.PrecioUnitario.Decimal.String())
	assert.False(t, item.PrecioTotal.Valid)
}

func TestProcessText_ErrorEnvelope(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"200 with error status", http.StatusOK},
		{"500 with error body", http.StatusInternalServerError},
		{"413 with error body", http.StatusRequestEntityTooLarge},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, `{"status":"error","error":"Sin credenciales","timestamp":"2024-05-01T00:00:00Z"}`)
			})

			resp, err := client.ProcessText(context.Background(), "hola")
			require.NoError(t, err)
			assert.True(t, resp.IsError())
			assert.Equal(t, "Sin credenciales", resp.Error)
		})
	}
}

func TestProcessText_TransportErrors(t *testing.T) {
	t.Run("non envelope status", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad gateway", http.StatusBadGateway)
		})
		_, err := client.ProcessText(context.Background(), "hola")

		var ce *ClientError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, ErrTypeHTTPStatus, ce.Type)
		assert.Equal(t, http.StatusBadGateway, ce.StatusCode)
	})

	t.Run("undecodable body", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "not json")
		})
		_, err := client.ProcessText(context.Background(), "hola")

		var ce *ClientError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, ErrTypeInvalidResponse, ce.Type)
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		client := NewClientWithConfig(&ClientConfig{BaseURL: url, RequestsPerSecond: 1000})
		_, err := client.ProcessText(context.Background(), "hola")
		assert.True(t, errors.Is(err, ErrUnreachable), "got %v", err)
	})

	t.Run("timeout", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		})
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := client.ProcessText(ctx, "hola")
		assert.True(t, errors.Is(err, ErrTimeout), "got %v", err)
	})
}

// =============================================================================
// PROCESS AUDIO
// =============================================================================

func TestProcessAudio_Upload(t *testing.T) {
	clip := wavClip(160)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/process-audio", r.URL.Path)
		file, header, err := r.FormFile("audio_file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()

		assert.Equal(t, "recording.wav", header.Filename)
		assert.Contains(t, header.Header.Get("Content-Type"), "wav")
		got, _ := io.ReadAll(file)
		assert.Equal(t, clip, got)

		_, _ = io.WriteString(w, `{"status":"success","transcript":"hola","order":{"tipo":"desconocido"}}`)
	})

	resp, err := client.ProcessAudio(context.Background(), clip)
	require.NoError(t, err)
	assert.Equal(t, OrderUnknown, resp.Order.Kind())
	assert.Equal(t, "hola", resp.Transcript)
}

func TestProcessAudio_Rejected(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	client := NewClientWithConfig(&ClientConfig{
		BaseURL:           srv.URL,
		RequestsPerSecond: 1000,
		MaxUploadBytes:    1024,
	})

	_, err := client.ProcessAudio(context.Background(), wavClip(1024))
	assert.ErrorIs(t, err, ErrUploadTooLarge)

	_, err = client.ProcessAudio(context.Background(), []byte("just some text, not audio"))
	assert.ErrorIs(t, err, ErrUnsupportedAudio)

	_, err = client.ProcessAudio(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnsupportedAudio)

	assert.Zero(t, calls, "rejected clips must not reach the backend")
}

func TestDetectAudio(t *testing.T) {
	mtype, ext, err := DetectAudio(wavClip(8))
	require.NoError(t, err)
	assert.Equal(t, ".wav", ext)
	assert.Contains(t, mtype, "wav")
}

// =============================================================================
// HEALTH & STATS
// =============================================================================

func TestHealth(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_, _ = io.WriteString(w, `{"status":"healthy","timestamp":"2024-05-01T00:00:00Z","version":"1.0.0"}`)
	})

	h, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, h.Healthy())
	assert.Equal(t, "1.0.0", h.Version)
}

func TestHealth_Unavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"status":"error","error":"Credenciales de Google no configuradas correctamente"}`)
	})

	_, err := client.Health(context.Background())
	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusServiceUnavailable, ce.StatusCode)
	assert.Equal(t, "Credenciales de Google no configuradas correctamente", ce.Message)
}

func TestStats(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stats", r.URL.Path)
		_, _ = io.WriteString(w, `{"requests_total":10,"requests_success":9,"requests_error":1,
			"success_rate":90.0,"uptime_seconds":3600,"startup_time":"2024-05-01T00:00:00Z"}`)
	})

	s, err := client.Stats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 10, s.RequestsTotal)
	assert.InDelta(t, 90.0, s.SuccessRate, 0.001)
}

// =============================================================================
// TYPES
// =============================================================================

func TestOrder_Kind(t *testing.T) {
	tests := []struct {
		order *Order
		want  OrderKind
	}{
		{nil, OrderUnknown},
		{&Order{Tipo: "orden"}, OrderSale},
		{&Order{Type: "sale"}, OrderSale},
		{&Order{Tipo: "Venta"}, OrderSale},
		{&Order{Tipo: "ingreso"}, OrderRestock},
		{&Order{Type: "restock"}, OrderRestock},
		{&Order{Tipo: "desconocido"}, OrderUnknown},
		{&Order{}, OrderUnknown},
		{&Order{Tipo: "ingreso", Type: "sale"}, OrderRestock},
	}

	for _, tc := range tests {
		if got := tc.order.Kind(); got != tc.want {
			t.Errorf("%+v.Kind() = %q, want %q", tc.order, got, tc.want)
		}
	}
}

func TestClientError(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := &ClientError{Type: ErrTypeUnreachable, Message: "backend is not reachable", Cause: cause}

	assert.Equal(t, "backend is not reachable: dial tcp: refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "unreachable", ErrTypeUnreachable.String())
}
