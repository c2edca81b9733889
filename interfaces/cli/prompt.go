package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/naoterumaker/youtube-transcriber/domain/model"
)

// maxPromptAttempts bounds how often an invalid period answer is asked again.
const maxPromptAttempts = 3

// Prompter asks the harvest questions on a terminal
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter creates a new prompter reading answers from in
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// SelectPeriod lists the periods numbered 1-4 and reads the choice.
// An empty answer picks all time.
func (p *Prompter) SelectPeriod() (model.Period, error) {
	fmt.Fprintln(p.out, "Select the period to harvest:")
	for i, period := range model.Periods {
		fmt.Fprintf(p.out, "  %d) %s (recommended up to %d videos)\n", i+1, period.Label(), period.RecommendedCap())
	}
	for attempt := 0; attempt < maxPromptAttempts; attempt++ {
		fmt.Fprintf(p.out, "Period [1-%d, default %d]: ", len(model.Periods), len(model.Periods))
		answer, err := p.readLine()
		if err != nil && answer == "" {
			if errors.Is(err, io.EOF) {
				return model.PeriodAllTime, nil
			}
			return "", err
		}
		period, perr := model.ParsePeriod(answer)
		if perr == nil {
			return period, nil
		}
		fmt.Fprintf(p.out, "Invalid choice %q\n", answer)
	}
	return "", fmt.Errorf("no valid period selected after %d attempts", maxPromptAttempts)
}

// Confirm asks whether the recommended cap should be applied. Anything
// other than y or yes declines.
func (p *Prompter) Confirm(found, recommended int) bool {
	fmt.Fprintf(p.out, "Found %d videos. Process only the latest %d? [y/N]: ", found, recommended)
	answer, _ := p.readLine()
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	}
	return false
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	return strings.TrimSpace(line), err
}
