// Command predict collects one customer record on the terminal, submits it
// to the prediction service and prints the churn probability.
//
// It reads the same environment as the server (PREDICTOR, PREDICTION_URL,
// PREDICTION_TIMEOUT, LOG_LEVEL).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlecAivazis/survey/v2"
	"github.com/DukeRupert/churnform/internal"
	"github.com/DukeRupert/churnform/internal/controller"
	"github.com/DukeRupert/churnform/internal/domain"
)

// errPredictionFailed is returned when the service rejects the record and
// there is nothing left to correct.
var errPredictionFailed = errors.New("prediction failed")

// maxAttempts bounds how many times rejected fields are asked again.
const maxAttempts = 5

type cli struct {
	ctrl   *controller.Controller
	prompt *prompter
	out    io.Writer
}

// run fills names (all fields when empty), submits, and asks again for
// whichever fields were rejected until the prediction succeeds.
func (c *cli) run(ctx context.Context, names []string) error {
	catalog := c.ctrl.Catalog()

	for attempt := 1; ; attempt++ {
		if err := c.fill(names); err != nil {
			return err
		}
		if err := c.ctrl.Submit(ctx); err != nil {
			return err
		}

		snap := c.ctrl.Snapshot()
		switch snap.Phase {
		case controller.PhaseSuccess:
			p, _ := snap.Result.Prediction()
			fmt.Fprintf(c.out, "Churn Probability: %d%%\n", p.Percent())
			fmt.Fprintln(c.out, p.Verdict())
			return nil
		case controller.PhaseFailure:
			fmt.Fprintln(c.out, "Prediction failed")
			fmt.Fprintln(c.out, snap.Result.FailureIndented())
		}

		names = rejected(catalog, snap.Errors)
		if len(names) == 0 {
			return errPredictionFailed
		}
		if attempt >= maxAttempts {
			return fmt.Errorf("%w after %d attempts", errPredictionFailed, attempt)
		}
	}
}

// fill prompts for each named field, showing the error it currently has.
func (c *cli) fill(names []string) error {
	catalog := c.ctrl.Catalog()
	snap := c.ctrl.Snapshot()

	for _, name := range names {
		f, ok := catalog.Field(name)
		if !ok {
			continue
		}
		value, err := c.prompt.askField(f, snap.Values[name], snap.Errors.Get(name))
		if err != nil {
			return err
		}
		if err := c.ctrl.SetField(name, value); err != nil {
			return err
		}
	}
	return nil
}

// rejected returns the catalog fields with an error, in declaration order.
func rejected(catalog *domain.Catalog, errs domain.ErrorMap) []string {
	var names []string
	for _, name := range catalog.Names() {
		if errs.Has(name) {
			names = append(names, name)
		}
	}
	return names
}

func run() error {
	example := flag.Bool("example", false, "submit the sample customer instead of prompting")
	url := flag.String("url", "", "prediction endpoint (overrides PREDICTION_URL)")
	flag.Parse()

	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}
	if *url != "" {
		cfg.Predictor = internal.PredictorHTTP
		cfg.PredictionURL = *url
	}

	// Prompts own stdout; logs go to stderr.
	logger := internal.NewLogger(os.Stderr, cfg.Env, cfg.LogLevel)

	catalog, err := domain.DefaultCatalog()
	if err != nil {
		return fmt.Errorf("field catalog: %w", err)
	}
	predictor, err := internal.NewPredictor(cfg, logger)
	if err != nil {
		return fmt.Errorf("predictor initialization failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{
		ctrl:   controller.New(catalog, predictor, logger),
		prompt: &prompter{ask: survey.AskOne},
		out:    os.Stdout,
	}

	names := catalog.Names()
	if *example {
		c.ctrl.FillExample()
		names = nil
	}
	return c.run(ctx, names)
}

func main() {
	if err := run(); err != nil {
		if errors.Is(err, errAborted) {
			os.Exit(130)
		}
		log.Fatal(err)
	}
}
