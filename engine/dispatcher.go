package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ofertazap/ofertazap/domains/channel"
	"github.com/ofertazap/ofertazap/domains/group"
	"github.com/ofertazap/ofertazap/domains/program"
)

const defaultSendTimeout = 30 * time.Second

// Dispatcher fans a composed message out to the program's resolved targets.
// Every target is attempted independently; one failure never aborts the
// siblings, and the secondary channel is an independent side effect.
type Dispatcher struct {
	directory   group.IGroupDirectory
	transport   channel.IMessagingTransport
	secondary   channel.ISecondaryPublisher
	sendTimeout time.Duration
}

func NewDispatcher(
	directory group.IGroupDirectory,
	transport channel.IMessagingTransport,
	secondary channel.ISecondaryPublisher,
	sendTimeout time.Duration,
) *Dispatcher {
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	return &Dispatcher{
		directory:   directory,
		transport:   transport,
		secondary:   secondary,
		sendTimeout: sendTimeout,
	}
}

// resolveTargets resolves delivery targets fresh from the directory; results
// are never cached across runs.
func (d *Dispatcher) resolveTargets(ctx context.Context, p program.Program) ([]group.Target, error) {
	switch p.TargetMode {
	case program.TargetExplicitGroups:
		return d.directory.Resolve(ctx, p.GroupIDs)
	case program.TargetAllActiveGroups, "":
		return d.directory.ListActive(ctx)
	default:
		return nil, fmt.Errorf("unknown target mode %q", p.TargetMode)
	}
}

// Dispatch sends the content to every resolved target concurrently and joins
// all outcomes before returning. Group outcomes come first, in target order;
// the secondary outcome (when enabled) is appended last.
func (d *Dispatcher) Dispatch(ctx context.Context, p program.Program, content channel.Content) ([]program.ChannelResult, error) {
	targets, err := d.resolveTargets(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve targets: %w", err)
	}

	outcomes := make([]program.ChannelResult, len(targets))
	var wg sync.WaitGroup

	for i, target := range targets {
		wg.Add(1)
		go func(i int, target group.Target) {
			defer wg.Done()
			outcomes[i] = d.sendToGroup(ctx, target, content)
		}(i, target)
	}

	var secondaryOutcome *program.ChannelResult
	if p.Secondary.Enabled && d.secondary != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out := d.publishSecondary(ctx, p.Secondary.Mode, content)
			secondaryOutcome = &out
		}()
	}

	wg.Wait()

	if secondaryOutcome != nil {
		outcomes = append(outcomes, *secondaryOutcome)
	}
	return outcomes, nil
}

func (d *Dispatcher) sendToGroup(ctx context.Context, target group.Target, content channel.Content) program.ChannelResult {
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	out := program.ChannelResult{
		Kind:         program.ChannelGroup,
		TargetID:     target.ID,
		TargetHandle: target.Handle,
	}

	resp, err := d.transport.Send(sendCtx, target, content)
	if err != nil {
		logrus.WithError(err).Warnf("[DISPATCH] Send to group %s failed", target.Handle)
		out.Error = err.Error()
		return out
	}

	out.OK = true
	out.MessageID = resp.MessageID
	return out
}

func (d *Dispatcher) publishSecondary(ctx context.Context, mode program.SecondaryMode, content channel.Content) program.ChannelResult {
	pubCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	out := program.ChannelResult{
		Kind:     program.ChannelSecondary,
		TargetID: string(mode),
	}

	resp, err := d.secondary.Publish(pubCtx, content, mode)
	if err != nil {
		logrus.WithError(err).Warn("[DISPATCH] Secondary channel publish failed")
		out.Error = err.Error()
		return out
	}

	out.OK = true
	out.MessageID = resp.MessageID
	return out
}
