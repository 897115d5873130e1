package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"flag-quiz-service/internal/app"
	"flag-quiz-service/internal/domain"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	styleHeader    = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	styleCorrect   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	styleIncorrect = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	styleSubtle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleResult    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2)
)

// NewPlayCmd runs a game in the terminal against the configured stores.
func NewPlayCmd(configPath *string) *cobra.Command {
	var req app.StartRequest
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play the flag quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadLocalConfig(*configPath)
			if err != nil {
				return err
			}
			rt, err := buildRuntime(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			p := &player{
				service: rt.service,
				id:      "terminal",
				in:      bufio.NewReader(cmd.InOrStdin()),
				out:     cmd.OutOrStdout(),
			}
			return p.run(cmd.Context(), req)
		},
	}
	cmd.Flags().StringVar(&req.Region, "region", "", "region name or slug (prompted when empty)")
	cmd.Flags().StringVar(&req.Mode, "mode", "", "flag-to-name or name-to-flag")
	cmd.Flags().StringVar(&req.Count, "count", "", "10, 20, 30, a custom number, all or endless")
	return cmd
}

type player struct {
	service *app.QuizService
	id      string
	in      *bufio.Reader
	out     io.Writer
}

func (p *player) run(ctx context.Context, req app.StartRequest) error {
	if req.Region == "" {
		region, err := p.chooseRegion(ctx)
		if err != nil {
			return err
		}
		req.Region = region
	}
	if req.Mode == "" {
		req.Mode = p.prompt("Mode [flag-to-name / name-to-flag]", string(domain.ModeFlagToName))
	}
	if req.Count == "" {
		req.Count = p.prompt("Questions [10 / 20 / 30 / N / all / endless]", "10")
	}

	view, err := p.service.Start(ctx, p.id, req)
	if err != nil {
		return err
	}
	session, err := p.service.Session(p.id)
	if err != nil {
		return err
	}

	for {
		p.showQuestion(view)
		line, err := p.readLine()
		if err != nil {
			p.service.Quit(p.id)
			return nil
		}
		switch strings.ToLower(line) {
		case "q", "quit":
			p.service.Quit(p.id)
			fmt.Fprintln(p.out, styleSubtle.Render("Game abandoned."))
			return nil
		}

		selected, ok := p.selection(ctx, view, line)
		if !ok {
			fmt.Fprintln(p.out, styleSubtle.Render("Pick a number between 1 and "+strconv.Itoa(len(view.Options))+", type a country name or q to quit."))
			continue
		}

		outcome, err := p.service.Answer(ctx, p.id, selected)
		if err != nil {
			return err
		}
		p.showOutcome(outcome, view.Endless)

		switch {
		case outcome.Terminated:
			select {
			case summary := <-session.Results():
				p.showSummary(summary)
				return nil
			case <-time.After(10 * time.Second):
				return errors.New("timed out waiting for results")
			}
		case outcome.Next == domain.NextResults:
			return p.finish(ctx)
		}

		if view, err = p.service.Next(ctx, p.id); err != nil {
			return err
		}
	}
}

// selection accepts an option number or a typed country name.
func (p *player) selection(ctx context.Context, view domain.QuestionView, line string) (string, bool) {
	if choice, err := strconv.Atoi(line); err == nil {
		if choice < 1 || choice > len(view.Options) {
			return "", false
		}
		return view.Options[choice-1].Name, true
	}
	return p.service.Resolve(ctx, line)
}

func (p *player) finish(ctx context.Context) error {
	summary, err := p.service.Finish(ctx, p.id)
	if err != nil {
		return err
	}
	p.showSummary(summary)
	return nil
}

func (p *player) chooseRegion(ctx context.Context) (string, error) {
	regions, err := p.service.Regions(ctx)
	if err != nil {
		return "", err
	}
	fmt.Fprintln(p.out, styleHeader.Render("Choose a region"))
	for i, r := range regions {
		fmt.Fprintf(p.out, "  %d. %s %s\n", i+1, r.Region, styleSubtle.Render(fmt.Sprintf("(%d)", r.Count)))
	}
	answer := p.prompt("Region", "1")
	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(regions) {
		return string(regions[n-1].Region), nil
	}
	return answer, nil
}

func (p *player) showQuestion(view domain.QuestionView) {
	header := fmt.Sprintf("%s · Question %d", view.Region, view.Number)
	if view.Total > 0 {
		header += fmt.Sprintf(" of %d", view.Total)
	}
	if view.Endless {
		header += " · Lives " + strings.Repeat("♥", view.Counters.Lives)
	}
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, styleHeader.Render(header))

	if view.Mode == domain.ModeNameToFlag {
		fmt.Fprintf(p.out, "Which flag belongs to %s?\n", view.Prompt)
		for i, option := range view.Options {
			fmt.Fprintf(p.out, "  %d. %s %s\n", i+1, flagEmoji(option.FlagURL), styleSubtle.Render(option.FlagURL))
		}
	} else {
		fmt.Fprintf(p.out, "Which country does this flag belong to? %s %s\n", flagEmoji(view.Prompt), styleSubtle.Render(view.Prompt))
		for i, option := range view.Options {
			fmt.Fprintf(p.out, "  %d. %s\n", i+1, option.Name)
		}
	}
	fmt.Fprint(p.out, "> ")
}

func (p *player) showOutcome(outcome domain.Outcome, endless bool) {
	if outcome.Correct {
		fmt.Fprintln(p.out, styleCorrect.Render("Correct!"))
	} else {
		fmt.Fprintln(p.out, styleIncorrect.Render("Wrong! It was "+outcome.Answer+"."))
	}
	status := fmt.Sprintf("correct %d · wrong %d · streak %d", outcome.Counters.Correct, outcome.Counters.Wrong, outcome.Counters.Streak)
	if endless {
		status += fmt.Sprintf(" · lives %d", outcome.Counters.Lives)
	}
	fmt.Fprintln(p.out, styleSubtle.Render(status))
}

func (p *player) showSummary(summary domain.SessionSummary) {
	lines := []string{
		styleHeader.Render("Results"),
		fmt.Sprintf("Correct: %d", summary.Correct),
		fmt.Sprintf("Wrong: %d", summary.Wrong),
	}
	if !summary.Endless {
		lines = append(lines, fmt.Sprintf("Score: %d%%", summary.Percentage))
	}
	lines = append(lines, summary.Message)
	fmt.Fprintln(p.out, styleResult.Render(strings.Join(lines, "\n")))
}

func (p *player) prompt(label, def string) string {
	fmt.Fprintf(p.out, "%s %s: ", label, styleSubtle.Render("["+def+"]"))
	line, err := p.readLine()
	if err != nil || line == "" {
		return def
	}
	return line
}

func (p *player) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// flagEmoji turns a two-letter flag code into regional indicator symbols.
// Subdivision and organisation codes have no emoji and render as nothing.
func flagEmoji(flagURL string) string {
	code := strings.TrimSuffix(path.Base(flagURL), path.Ext(flagURL))
	if len(code) != 2 {
		return ""
	}
	var b strings.Builder
	for _, r := range strings.ToUpper(code) {
		if r < 'A' || r > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + (r - 'A'))
	}
	return b.String()
}
