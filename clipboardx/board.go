package clipboardx

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/atotto/clipboard"
)

// Board is a clipboard backend.
type Board interface {
	Read() (string, error)
	Write(text string) error
}

var ErrUnavailable = errors.New("no clipboard backend accepted the text")

// Memory is an in-process board.
type Memory struct {
	text string
}

func (m *Memory) Read() (string, error) { return m.text, nil }

func (m *Memory) Write(text string) error {
	m.text = text
	return nil
}

type command struct {
	name string
	args []string
}

var (
	writeCommands = []command{
		{name: "wl-copy"},
		{name: "xclip", args: []string{"-selection", "clipboard"}},
		{name: "xsel", args: []string{"--clipboard", "--input"}},
		{name: "pbcopy"},
		{name: "clip.exe"},
	}
	readCommands = []command{
		{name: "wl-paste", args: []string{"--no-newline"}},
		{name: "xclip", args: []string{"-o", "-selection", "clipboard"}},
		{name: "xsel", args: []string{"--clipboard", "--output"}},
		{name: "pbpaste"},
		{name: "powershell.exe", args: []string{"-NoProfile", "-Command", "Get-Clipboard"}},
	}
)

// System talks to the desktop clipboard. It tries the native API, then the
// usual command-line tools, then OSC52 on a terminal. The last written text
// is kept in process so copy/paste inside one run works without any backend.
type System struct {
	// Terminal receives OSC52 sequences; nil disables them.
	Terminal io.Writer

	last string
}

func NewSystem() *System {
	s := &System{}
	if fi, err := os.Stdout.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
		s.Terminal = os.Stdout
	}
	return s
}

func (s *System) Write(text string) error {
	s.last = text
	ok := false
	if err := clipboard.WriteAll(text); err == nil {
		ok = true
	}
	if !ok && runWriteCommands(text) {
		ok = true
	}
	if s.writeOSC52(text) {
		ok = true
	}
	if !ok {
		return ErrUnavailable
	}
	return nil
}

func (s *System) Read() (string, error) {
	if text, err := clipboard.ReadAll(); err == nil && text != "" {
		return text, nil
	}
	if text, ok := runReadCommands(); ok && text != "" {
		return text, nil
	}
	return s.last, nil
}

func runWriteCommands(text string) bool {
	for _, c := range writeCommands {
		if _, err := exec.LookPath(c.name); err != nil {
			continue
		}
		cmd := exec.Command(c.name, c.args...)
		cmd.Stdin = strings.NewReader(text)
		if err := cmd.Run(); err == nil {
			return true
		}
	}
	return false
}

func runReadCommands() (string, bool) {
	for _, c := range readCommands {
		if _, err := exec.LookPath(c.name); err != nil {
			continue
		}
		out, err := exec.Command(c.name, c.args...).Output()
		if err == nil && len(out) > 0 {
			return string(out), true
		}
	}
	return "", false
}

func (s *System) writeOSC52(text string) bool {
	if s.Terminal == nil || text == "" {
		return false
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(text))
	_, err := fmt.Fprintf(s.Terminal, "\x1b]52;c;%s\x07", encoded)
	return err == nil
}
