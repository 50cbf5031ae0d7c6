package mail

import (
	"context"
	"fmt"

	"galapagosrental/internal/logger"
)

// Envelope is one rendered message plus a label for logging.
type Envelope struct {
	Label   string
	Message Message
}

type Result struct {
	Sent   int
	Failed int
	Errors []error
	// SentLabels lists the labels of envelopes that went out.
	SentLabels []string
}

// Dispatcher sends envelopes one at a time, waiting on the limiter before
// every send. Failures are counted and never stop the loop.
type Dispatcher struct {
	sender  Sender
	limiter *Limiter
}

func NewDispatcher(sender Sender, limiter *Limiter) *Dispatcher {
	return &Dispatcher{sender: sender, limiter: limiter}
}

func (d *Dispatcher) Dispatch(ctx context.Context, envs []Envelope) Result {
	log := logger.WithComponent("mail")
	var res Result
	for _, env := range envs {
		if err := d.limiter.Wait(ctx); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Errorf("%s: %w", env.Label, err))
			continue
		}
		if err := d.sender.Send(ctx, env.Message); err != nil {
			log.Error().Err(err).Str("template", env.Label).Msg("email send failed")
			res.Failed++
			res.Errors = append(res.Errors, fmt.Errorf("%s: %w", env.Label, err))
			continue
		}
		log.Info().Str("template", env.Label).Strs("to", env.Message.To).Msg("email sent")
		res.Sent++
		res.SentLabels = append(res.SentLabels, env.Label)
	}
	return res
}
