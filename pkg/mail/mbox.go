package mail

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-mbox"
)

// AppendMbox writes msg as one mboxrd entry to w. The envelope sender is the
// bare address of from; the message keeps its CRLF line endings.
func AppendMbox(w io.Writer, from string, date time.Time, msg string) error {
	sender := strings.TrimSpace(from)
	if addr, err := parseAddress(sender); err == nil {
		sender = addr
	}
	if sender == "" {
		sender = "MAILER-DAEMON"
	}

	mw := mbox.NewWriter(w)
	entry, err := mw.CreateMessage(sender, date)
	if err != nil {
		return fmt.Errorf("create mbox entry: %w", err)
	}
	if _, err := io.WriteString(entry, msg); err != nil {
		return fmt.Errorf("write mbox entry: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close mbox: %w", err)
	}
	return nil
}

// ReadMbox returns every message stored in an mbox stream.
func ReadMbox(r io.Reader) ([]string, error) {
	var out []string
	mr := mbox.NewReader(r)
	for {
		msg, err := mr.NextMessage()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("read mbox: %w", err)
		}
		body, err := io.ReadAll(msg)
		if err != nil {
			return out, fmt.Errorf("read mbox message: %w", err)
		}
		out = append(out, string(body))
	}
}
