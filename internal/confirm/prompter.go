package confirm

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Prompter renders requests to a writer and answers them from lines read from a reader.
// "y", "yes" and the lower-cased confirm text count as yes; anything else, including end of input, as no.
type Prompter struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter creates a Prompter.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Attach makes p answer every request opened on d.
func (p *Prompter) Attach(d *Dialog) {
	d.OnOpen(func(req Request) {
		go func() {
			answer := p.answer(req)
			if err := d.Resolve(req.ID, answer); err != nil {
				log.Debug().Err(err).Str("request", req.ID).Msg("confirmation answered too late")
			}
		}()
	})
}

func (p *Prompter) answer(req Request) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	pr := req.Prompt
	_, _ = fmt.Fprintf(p.out, "%s\n%s\n[%s/%s]: ", pr.Title, pr.Description, pr.ConfirmText, pr.CancelText)

	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", strings.ToLower(pr.ConfirmText):
		return true
	}

	return false
}
