// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/tibo-tui/internal/audio"
	"github.com/jeranaias/tibo-tui/internal/config"
	"github.com/jeranaias/tibo-tui/internal/draft"
	"github.com/jeranaias/tibo-tui/internal/export"
	"github.com/jeranaias/tibo-tui/internal/intent"
	"github.com/jeranaias/tibo-tui/internal/lifecycle"
	"github.com/jeranaias/tibo-tui/internal/session"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for the chat REPL.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists command history, owner read/write only.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// lineReader is the REPL's input source.
type lineReader interface {
	ReadInput(prompt string) (string, error)
}

// =============================================================================
// REPL
// =============================================================================

// repl is the line-mode counterpart of the full-screen UI. Everything runs
// on the calling goroutine.
type repl struct {
	sess      *session.Session
	in        lineReader
	out       io.Writer
	render    func(string) string
	sleep     func(time.Duration)
	exportDir string
}

func newREPL(sess *session.Session, in lineReader, out io.Writer) *repl {
	return &repl{
		sess:      sess,
		in:        in,
		out:       out,
		render:    renderMarkdown,
		sleep:     time.Sleep,
		exportDir: ".",
	}
}

// HandleChat handles the "chat" command.
func HandleChat(ctx context.Context, args Args, env Env) error {
	sess := session.NewFromConfig(env.Config, env.Logger)
	input := NewChatCLI()
	defer input.Close()

	r := newREPL(sess, input, env.stdout())
	if dir := env.Config.Export.Dir; dir != "" {
		r.exportDir = dir
	} else if dir, err := config.DefaultExportDir(); err == nil {
		r.exportDir = dir
	}

	voice := sess.ProbeVoice(ctx)
	if !args.Quiet {
		r.printWelcome(env.Config.Backend.URL, voice)
	}
	return r.loop(ctx)
}

func (r *repl) loop(ctx context.Context) error {
	for {
		line, err := r.in.ReadInput(PromptStyle.Render("tibo> "))
		if err != nil {
			// Ctrl+C, Ctrl+D and closed stdin all end the session.
			fmt.Fprintln(r.out)
			r.printExitSummary()
			return nil
		}

		quit, err := r.execute(ctx, line)
		if err != nil {
			fmt.Fprintf(r.out, "%s %v\n", ErrorStyle.Render("[Error]"), err)
		}
		if quit {
			r.printExitSummary()
			return nil
		}
	}
}

// execute runs one input line. Plain text is an order; lines starting with
// "/" are commands.
func (r *repl) execute(ctx context.Context, line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	switch strings.ToLower(line) {
	case "exit", "quit", "salir":
		return true, nil
	}
	if !strings.HasPrefix(line, "/") {
		return false, r.submitText(ctx, line)
	}

	fields := strings.Fields(line)
	name := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	cmd, ok := lookupCommand(name)
	if !ok {
		if s := suggestFrom(name, commandNames()); s != "" {
			return false, fmt.Errorf("comando desconocido /%s (¿quisiste decir /%s?)", name, s)
		}
		return false, fmt.Errorf("comando desconocido /%s; /ayuda lista los comandos", name)
	}
	return cmd.run(r, ctx, fields[1:])
}

// =============================================================================
// COMMAND TABLE
// =============================================================================

type replCommand struct {
	names []string
	usage string
	help  string
	run   func(r *repl, ctx context.Context, args []string) (bool, error)
}

func replCommands() []replCommand {
	return []replCommand{
		{names: []string{"ayuda", "help", "?"}, help: "Muestra esta ayuda", run: (*repl).cmdHelp},
		{names: []string{"tarjetas", "cards", "list"}, help: "Lista las propuestas", run: (*repl).cmdCards},
		{names: []string{"editar", "select", "e"}, usage: "N", help: "Abre la venta N para editar", run: (*repl).cmdSelect},
		{names: []string{"ver", "show"}, help: "Muestra la venta abierta", run: (*repl).cmdShow},
		{names: []string{"cliente", "client"}, usage: "NOMBRE", help: "Cambia el cliente", run: (*repl).cmdClient},
		{names: []string{"fecha", "date"}, usage: "AAAA-MM-DD", help: "Cambia la fecha", run: (*repl).cmdDate},
		{names: []string{"envases", "containers"}, usage: "MONTO", help: "Costo de envases", run: (*repl).cmdContainers},
		{names: []string{"producto", "product"}, usage: "I NOMBRE", help: "Renombra el producto I", run: (*repl).cmdProduct},
		{names: []string{"cantidad", "qty"}, usage: "I CANT", help: "Cantidad del producto I", run: (*repl).cmdQuantity},
		{names: []string{"precio", "price"}, usage: "I PRECIO", help: "Precio unitario del producto I", run: (*repl).cmdPrice},
		{names: []string{"agregar", "add"}, help: "Agrega un producto", run: (*repl).cmdAdd},
		{names: []string{"quitar", "remove"}, usage: "I", help: "Quita el producto I", run: (*repl).cmdRemove},
		{names: []string{"confirmar", "confirm"}, help: "Genera la venta", run: (*repl).cmdConfirm},
		{names: []string{"cancelar", "cancel"}, help: "Descarta la venta abierta", run: (*repl).cmdCancel},
		{names: []string{"voz", "voice"}, help: "Graba un pedido por voz", run: (*repl).cmdVoice},
		{names: []string{"historial", "history"}, help: "Muestra la conversación", run: (*repl).cmdHistory},
		{names: []string{"exportar", "export"}, usage: "[md|json]", help: "Exporta la conversación", run: (*repl).cmdExport},
		{names: []string{"estado", "status"}, help: "Estado de la sesión y del backend", run: (*repl).cmdStatus},
		{names: []string{"salir", "quit", "exit"}, help: "Termina", run: func(*repl, context.Context, []string) (bool, error) { return true, nil }},
	}
}

func lookupCommand(name string) (replCommand, bool) {
	for _, c := range replCommands() {
		for _, n := range c.names {
			if n == name {
				return c, true
			}
		}
	}
	return replCommand{}, false
}

func commandNames() []string {
	var names []string
	for _, c := range replCommands() {
		names = append(names, c.names...)
	}
	return names
}

// =============================================================================
// ORDERS
// =============================================================================

func (r *repl) submitText(ctx context.Context, text string) error {
	reply, err := r.sess.SubmitText(ctx, text)
	if errors.Is(err, session.ErrBusy) {
		return errors.New("esperá la respuesta anterior")
	}
	if err != nil {
		return err
	}
	r.printReply(reply.ID)
	return nil
}

// printReply prints the assistant turn with id and its card.
func (r *repl) printReply(id string) {
	for msg := range r.sess.Conversation().All() {
		if msg.ID == id {
			printMessage(r.out, msg, r.render)
			if msg.Action.Editable() {
				fmt.Fprintln(r.out, DimStyle.Render(fmt.Sprintf("/editar %d para editar y confirmar", len(r.sess.Conversation().Actions()))))
			}
			return
		}
	}
}

func (r *repl) cmdVoice(ctx context.Context, _ []string) (bool, error) {
	rec, err := r.sess.StartRecording(ctx)
	if errors.Is(err, audio.ErrUnsupported) {
		return false, fmt.Errorf("entrada de voz no disponible: %s", r.sess.Snapshot().Voice.Reason)
	}
	if err != nil {
		return false, err
	}

	fmt.Fprintln(r.out, WarningStyle.Render("● Grabando... Enter para enviar"))
	_, _ = r.in.ReadInput("")

	clip, err := r.sess.StopRecording(rec)
	if err != nil {
		return false, fmt.Errorf("no se pudo grabar: %w", err)
	}
	fmt.Fprintln(r.out, DimStyle.Render(fmt.Sprintf("%s (%s)", session.MsgAudioRecorded, formatDuration(clip.Duration))))

	reply, err := r.sess.SubmitAudio(ctx, clip)
	if err != nil {
		return false, err
	}
	r.printReply(reply.ID)
	return false, nil
}

// =============================================================================
// CARDS AND EDITING
// =============================================================================

func (r *repl) cmdCards(context.Context, []string) (bool, error) {
	actions := r.sess.Conversation().Actions()
	if len(actions) == 0 {
		fmt.Fprintln(r.out, DimStyle.Render("Todavía no hay propuestas."))
		return false, nil
	}
	for i, a := range actions {
		fmt.Fprintf(r.out, "%2d. %s\n", i+1, cardLine(a))
	}
	return false, nil
}

// cardLine summarizes an action in one line.
func cardLine(a *intent.Action) string {
	switch {
	case a.Sale != nil:
		client := a.Sale.ClientName
		if client == "" {
			client = intent.DefaultClientLabel
		}
		return fmt.Sprintf("Venta · %s · %d producto(s) · %s", client, a.Sale.ItemCount(), draft.FormatMoney(a.Sale.Total()))
	case a.Restock != nil:
		return fmt.Sprintf("Ingreso · %s · %s (solo lectura)", a.Restock.ProductName, a.Restock.QuantityLabel)
	default:
		return string(a.Kind)
	}
}

func (r *repl) cmdSelect(_ context.Context, args []string) (bool, error) {
	actions := r.sess.Conversation().Actions()
	if len(args) == 0 {
		return false, ErrMissingArgument("tarjeta", "/editar 1")
	}
	n, err := ParseIntWithValidation(args[0], "tarjeta")
	if err != nil {
		return false, err
	}
	if n > len(actions) {
		return false, NewNotFoundError("tarjeta", args[0])
	}

	switch err := r.sess.Select(actions[n-1].ID); {
	case errors.Is(err, lifecycle.ErrNotEditable):
		return false, errors.New("los ingresos de mercadería todavía no se pueden editar")
	case err != nil:
		return false, err
	}
	if r.sess.State() != lifecycle.Editing {
		return false, errors.New("hay una venta en curso; esperá a que termine")
	}
	r.printDraft()
	fmt.Fprintln(r.out, DimStyle.Render("/confirmar para generar la venta, /cancelar para descartarla"))
	return false, nil
}

func (r *repl) cmdShow(context.Context, []string) (bool, error) {
	if _, ok := r.sess.Draft(); !ok {
		return false, errNoOpenSale
	}
	r.printDraft()
	return false, nil
}

var errNoOpenSale = errors.New("no hay una venta abierta; usá /tarjetas y /editar N")

func (r *repl) printDraft() {
	if d, ok := r.sess.Draft(); ok {
		fmt.Fprintln(r.out, r.render(saleMarkdown(d)))
	}
}

// edit applies fn to the open sale and reprints it.
func (r *repl) edit(fn func(*draft.Store) error) (bool, error) {
	err := r.sess.Edit(fn)
	switch {
	case errors.Is(err, lifecycle.ErrNotEditing):
		return false, errNoOpenSale
	case errors.Is(err, draft.ErrLastLineItem):
		return false, errors.New("una venta necesita al menos un producto")
	case err != nil:
		return false, err
	}
	r.printDraft()
	return false, nil
}

// itemIndex converts a 1-based item argument to an index into the open sale.
func (r *repl) itemIndex(arg string) (int, error) {
	d, ok := r.sess.Draft()
	if !ok {
		return 0, errNoOpenSale
	}
	n, err := ParseIntWithValidation(arg, "producto")
	if err != nil {
		return 0, err
	}
	if n > len(d.LineItems) {
		return 0, NewNotFoundError("producto", arg)
	}
	return n - 1, nil
}

func (r *repl) cmdClient(_ context.Context, args []string) (bool, error) {
	name := strings.Join(args, " ")
	return r.edit(func(s *draft.Store) error { return s.SetClientName(name) })
}

func (r *repl) cmdDate(_ context.Context, args []string) (bool, error) {
	if len(args) == 0 {
		return false, ErrMissingArgument("fecha", "/fecha 2025-03-14")
	}
	return r.edit(func(s *draft.Store) error { return s.SetDate(args[0]) })
}

func (r *repl) cmdContainers(_ context.Context, args []string) (bool, error) {
	if len(args) == 0 {
		return false, ErrMissingArgument("monto", "/envases 50")
	}
	return r.edit(func(s *draft.Store) error { return s.SetContainerCost(args[0]) })
}

func (r *repl) cmdProduct(_ context.Context, args []string) (bool, error) {
	return r.setItemField(args, draft.FieldProduct, "/producto 1 Tomates perita")
}

func (r *repl) cmdQuantity(_ context.Context, args []string) (bool, error) {
	return r.setItemField(args, draft.FieldQuantity, "/cantidad 1 2.5")
}

func (r *repl) cmdPrice(_ context.Context, args []string) (bool, error) {
	return r.setItemField(args, draft.FieldUnitPrice, "/precio 1 120")
}

func (r *repl) setItemField(args []string, field draft.Field, example string) (bool, error) {
	if len(args) < 2 {
		return false, ErrMissingArgument(field.String(), example)
	}
	idx, err := r.itemIndex(args[0])
	if err != nil {
		return false, err
	}
	value := strings.Join(args[1:], " ")
	return r.edit(func(s *draft.Store) error { return s.UpdateLineItem(idx, field, value) })
}

func (r *repl) cmdAdd(context.Context, []string) (bool, error) {
	return r.edit(func(s *draft.Store) error { return s.AddLineItem() })
}

func (r *repl) cmdRemove(_ context.Context, args []string) (bool, error) {
	if len(args) == 0 {
		return false, ErrMissingArgument("producto", "/quitar 2")
	}
	idx, err := r.itemIndex(args[0])
	if err != nil {
		return false, err
	}
	return r.edit(func(s *draft.Store) error { return s.RemoveLineItem(idx) })
}

// =============================================================================
// CONFIRM AND CANCEL
// =============================================================================

func (r *repl) cmdConfirm(context.Context, []string) (bool, error) {
	exec, err := r.sess.Confirm()
	if err != nil {
		return false, err
	}
	if exec == nil {
		return false, errNoOpenSale
	}

	fmt.Fprintf(r.out, "Generando venta por %s...\n", draft.FormatMoney(exec.Total))
	r.sleep(exec.Delay)
	if r.sess.Complete(exec.ID) {
		r.printLast()
	}
	return false, nil
}

func (r *repl) cmdCancel(context.Context, []string) (bool, error) {
	if !r.sess.Cancel() {
		return false, errNoOpenSale
	}
	r.printLast()
	return false, nil
}

func (r *repl) printLast() {
	if msg, ok := r.sess.Conversation().Last(); ok {
		printMessage(r.out, msg, r.render)
	}
}

// =============================================================================
// SESSION INFO
// =============================================================================

func (r *repl) cmdHistory(context.Context, []string) (bool, error) {
	conv := r.sess.Conversation()
	if conv.IsEmpty() {
		fmt.Fprintln(r.out, DimStyle.Render("La conversación está vacía."))
		return false, nil
	}
	for msg := range conv.All() {
		printMessage(r.out, msg, r.render)
	}
	return false, nil
}

func (r *repl) cmdExport(_ context.Context, args []string) (bool, error) {
	format := export.FormatMarkdown
	if len(args) > 0 {
		f, err := export.ParseFormat(args[0])
		if err != nil {
			return false, NewValidationErrorWithExample("formato", args[0], err.Error(), "/exportar json")
		}
		format = f
	}

	opts := export.DefaultOptions()
	opts.OutputDir = r.exportDir
	path, err := export.Export(r.sess.Conversation(), format, opts)
	if err != nil {
		return false, err
	}
	fmt.Fprintf(r.out, "%s Conversación exportada a %s\n", SuccessStyle.Render("[OK]"), path)
	return false, nil
}

func (r *repl) cmdStatus(ctx context.Context, _ []string) (bool, error) {
	snap := r.sess.Snapshot()
	fmt.Fprintf(r.out, "%s%s\n", RenderLabel("Sesión"), snap.SessionID)
	fmt.Fprintf(r.out, "%s%s\n", RenderLabel("Estado"), snap.State)
	fmt.Fprintf(r.out, "%s%d\n", RenderLabel("Mensajes"), snap.MessageCount)
	if snap.Draft != nil {
		fmt.Fprintf(r.out, "%s%s\n", RenderLabel("Venta abierta"), snap.DisplayTotal)
	}
	voice := "no (" + snap.Voice.Reason + ")"
	if snap.Voice.Supported {
		voice = snap.Voice.Recorder
	}
	fmt.Fprintf(r.out, "%s%s\n", RenderLabel("Voz"), voice)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	health, err := r.sess.Health(ctx)
	switch {
	case err != nil:
		fmt.Fprintf(r.out, "%s%s %v\n", RenderLabel("Backend"), RenderStatus("fail"), err)
	default:
		fmt.Fprintf(r.out, "%s%s %s\n", RenderLabel("Backend"), RenderStatus(health.Status), health.Version)
	}
	return false, nil
}

func (r *repl) cmdHelp(context.Context, []string) (bool, error) {
	fmt.Fprintln(r.out, TitleStyle.Render("Comandos"))
	for _, c := range replCommands() {
		name := "/" + c.names[0]
		if c.usage != "" {
			name += " " + c.usage
		}
		fmt.Fprintf(r.out, "  %-24s %s\n", name, DimStyle.Render(c.help))
	}
	fmt.Fprintln(r.out, DimStyle.Render("Cualquier otro texto se envía como pedido."))
	return false, nil
}

func (r *repl) printWelcome(backendURL string, voice audio.Capability) {
	fmt.Fprintln(r.out, TitleStyle.Render("tibo")+DimStyle.Render(" · "+backendURL))
	if voice.Supported {
		fmt.Fprintln(r.out, DimStyle.Render("Voz disponible ("+voice.Recorder+"): /voz"))
	} else {
		fmt.Fprintln(r.out, DimStyle.Render("Entrada de voz no disponible: "+voice.Reason))
	}
	fmt.Fprintln(r.out, DimStyle.Render("Escribí un pedido, /ayuda para ver los comandos."))
	fmt.Fprintln(r.out, RenderSeparator())
}

func (r *repl) printExitSummary() {
	conv := r.sess.Conversation()
	var sales, confirmed int
	for msg := range conv.All() {
		if msg.HasAction() && msg.Action.Sale != nil {
			sales++
		}
		if msg.Content == lifecycle.MsgSaleCompleted {
			confirmed++
		}
	}
	fmt.Fprintln(r.out, DimStyle.Render(fmt.Sprintf("%d mensajes · %d ventas propuestas · %d confirmadas", conv.Len(), sales, confirmed)))
}
