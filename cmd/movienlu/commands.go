package main

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccastromar/movie-nlu/internal/app"
	"github.com/ccastromar/movie-nlu/internal/config"
	"github.com/ccastromar/movie-nlu/internal/dialogue"
	"github.com/ccastromar/movie-nlu/internal/nlu"
)

type envFunc func() (*config.EnvVars, error)

func newServeCmd(envFor envFunc) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := envFor()
			if err != nil {
				return err
			}
			if port > 0 {
				env.Port = port
			}
			run(cmd.Context(), env)
			return nil
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "HTTP port to listen on (overrides PORT)")
	return cmd
}

func newParseCmd(envFor envFunc) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "parse [utterance...]",
		Short: "Recognize dialogue acts; reads one utterance per line from stdin when none is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := envFor()
			if err != nil {
				return err
			}
			cfg, err := config.LoadFromDir(env.DefinitionsDir)
			if err != nil {
				return err
			}
			rec, err := app.LoadRecognizer(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				return parseLines(rec, strings.NewReader(strings.Join(args, " ")), cmd.OutOrStdout(), verbose)
			}
			return parseLines(rec, cmd.InOrStdin(), cmd.OutOrStdout(), verbose)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "also print the normalized text and rule")
	return cmd
}

// parseLines recognizes each input line in one conversation. A line of the
// form "> act(...)" is not recognized; it sets what the system said last. Once
// the system has made an offer, later turns know about it.
func parseLines(rec *nlu.Recognizer, in io.Reader, out io.Writer, verbose bool) error {
	mem := &nlu.Memory{}
	offers := dialogue.NewOfferLog()
	var state dialogue.State
	madeOffer := false

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := sc.Text()
		if sys, ok := strings.CutPrefix(strings.TrimSpace(line), ">"); ok {
			act, err := parseAct(sys)
			if err != nil {
				return err
			}
			madeOffer = madeOffer || act.Intent == dialogue.Offer
			state = dialogue.State{LastSysActs: []dialogue.Act{act}, SystemMadeOffer: madeOffer}
			offers.Track(act)
			continue
		}

		res := rec.RecognizeTurn(mem, line, state, offers)
		parts := make([]string, len(res.Acts))
		for i, a := range res.Acts {
			parts[i] = a.String()
		}
		if verbose {
			fmt.Fprintf(out, "%q -> %q [%s]\n", line, res.Normalized, res.Rule)
		}
		fmt.Fprintln(out, strings.Join(parts, " "))
		state = dialogue.State{SystemMadeOffer: madeOffer}
	}
	return sc.Err()
}

// parseAct reads "intent(slot=value, slot=value)".
func parseAct(s string) (dialogue.Act, error) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return dialogue.Act{}, fmt.Errorf("malformed act %q, want intent(slot=value, ...)", s)
	}
	act := dialogue.NewAct(dialogue.Intent(strings.TrimSpace(s[:open])))
	body := strings.TrimSpace(s[open+1 : len(s)-1])
	if body == "" {
		return act, nil
	}
	for _, kv := range strings.Split(body, ",") {
		slot, value, _ := strings.Cut(kv, "=")
		act.Params = append(act.Params, dialogue.NewItem(strings.TrimSpace(slot), strings.TrimSpace(value)))
	}
	return act, nil
}

func newIndexCmd(envFor envFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Show the slot values indexed from the movie store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := envFor()
			if err != nil {
				return err
			}
			cfg, err := config.LoadFromDir(env.DefinitionsDir)
			if err != nil {
				return err
			}
			rec, err := app.LoadRecognizer(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			idx := rec.Index()
			slots := idx.Slots()
			sort.Strings(slots)
			out := cmd.OutOrStdout()
			for _, s := range slots {
				fmt.Fprintf(out, "%-16s %d\n", s, len(idx.Values(s)))
			}
			fmt.Fprintf(out, "%-16s %d\n", "total", idx.Len())
			return nil
		},
	}
}

func newLinkCmd(envFor envFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "link <agent utterance>",
		Short: "Link the titles an agent utterance mentions to the movie store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := envFor()
			if err != nil {
				return err
			}
			cfg, err := config.LoadFromDir(env.DefinitionsDir)
			if err != nil {
				return err
			}
			lk, err := app.LoadLinker(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			matches, err := lk.LinkUtterance(strings.Join(args, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, m := range matches {
				if m.Title == "" {
					fmt.Fprintf(out, "%s\t-\n", m.Surface)
					continue
				}
				fmt.Fprintf(out, "%s\t%s\t%s\n", m.Surface, m.Title, strings.Join(m.Genres, ", "))
			}
			return nil
		},
	}
}
