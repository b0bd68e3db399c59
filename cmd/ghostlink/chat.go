package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/ghostlink/ghostlink/internal/logutil"
	"github.com/ghostlink/ghostlink/link"
	"github.com/ghostlink/ghostlink/protocol"
)

// sender is the part of either engine role the chat loop needs.
type sender interface {
	Send(msgType uint8, payload []byte)
}

// chatHandler prints peer messages and status transitions. The engine
// invokes it serially, so plain prints stay in wire order.
type chatHandler struct{}

func (chatHandler) OnMessage(msgType uint8, payload []byte) {
	switch msgType {
	case protocol.TypeText:
		pterm.FgCyan.Printfln("peer> %s", string(payload))
	case protocol.TypeImage, protocol.TypeFile:
		name := fmt.Sprintf("ghostlink-recv-%d.bin", time.Now().UnixNano())
		if err := os.WriteFile(name, payload, 0o600); err != nil {
			logutil.Error("failed to save received file: %v", err)
			return
		}
		pterm.FgCyan.Printfln("peer sent a file (%d bytes), saved as %s", len(payload), name)
	case protocol.TypeSystem:
		logutil.Debug("system message: %d bytes", len(payload))
	default:
		logutil.Warning("unknown message type %d (%d bytes), ignoring", msgType, len(payload))
	}
}

func (chatHandler) OnStatus(st link.Status) {
	switch st.State {
	case link.StateConnected:
		pterm.FgGreen.Printfln("* connected (%s)", st.Detail)
	case link.StateDisconnected:
		pterm.FgYellow.Printfln("* disconnected (%s)", st.Detail)
	case link.StateConnecting:
		logutil.Info("connecting to %s", st.Detail)
	case link.StateListening:
		pterm.FgGreen.Printfln("* listening on %s", st.Detail)
	case link.StateError:
		pterm.FgRed.Printfln("* error: %s", st.Detail)
	}
}

// pumpLines scans r into a channel until EOF or done closes. The done
// channel keeps the goroutine from leaking on a send nobody receives.
func pumpLines(r io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
	}()
	return lines
}

// runChat reads stdin lines and sends them as text messages until /quit,
// EOF, or ctx is cancelled. "/send <path>" transmits a file payload.
func runChat(ctx context.Context, s sender) {
	pterm.Println("Type messages to send. '/send <path>' sends a file, '/quit' exits.")

	done := make(chan struct{})
	defer close(done)
	lines := pumpLines(os.Stdin, done)

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			switch {
			case line == "":
			case line == "/quit":
				return
			case strings.HasPrefix(line, "/send "):
				sendFile(s, strings.TrimSpace(strings.TrimPrefix(line, "/send ")))
			default:
				s.Send(protocol.TypeText, []byte(line))
			}
		}
	}
}

func sendFile(s sender, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		logutil.Error("cannot read %s: %v", path, err)
		return
	}
	if len(data) > protocol.DefaultMaxPayload {
		logutil.Error("%s is larger than the max payload size", path)
		return
	}
	s.Send(protocol.TypeFile, data)
	logutil.Info("sent %s (%d bytes)", filepath.Base(path), len(data))
}
