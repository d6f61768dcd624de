package controls

import (
	"context"
	"errors"
	"time"
)

// StartLearn runs fn while id is in the active-learn set. A second call for
// the same id fails with ErrLearnInProgress without running fn. Addition and
// removal are each broadcast once on ChannelLearn.
func (c *Controller) StartLearn(ctx context.Context, id string, fn func(ctx context.Context) error) error {
	c.learnMu.Lock()
	if _, busy := c.activeLearn[id]; busy {
		c.learnMu.Unlock()
		return ErrLearnInProgress
	}
	c.activeLearn[id] = struct{}{}
	c.learnMu.Unlock()

	c.broadcaster.Broadcast(ChannelLearn, LearnUpdate{ID: id, Active: true})
	defer func() {
		c.learnMu.Lock()
		delete(c.activeLearn, id)
		c.learnMu.Unlock()
		c.broadcaster.Broadcast(ChannelLearn, LearnUpdate{ID: id, Active: false})
	}()

	return fn(ctx)
}

// ActiveLearns returns the ids with a learn in flight.
func (c *Controller) ActiveLearns() []string {
	c.learnMu.Lock()
	defer c.learnMu.Unlock()
	ids := make([]string, 0, len(c.activeLearn))
	for id := range c.activeLearn {
		ids = append(ids, id)
	}
	return ids
}

// ActionLearn asks an action's connection for its live values and applies
// them. The node's Learner runs without the controller lock; ApplyLearned
// runs under it.
func (c *Controller) ActionLearn(ctx context.Context, id, actionID string) (bool, error) {
	c.mu.Lock()
	ac, ok, err := capable[ActionsControl](c, id, CapActions)
	if !ok {
		c.mu.Unlock()
		return false, err
	}
	a, _ := findAction(ac, actionID)
	if a == nil {
		c.mu.Unlock()
		return false, nil
	}
	fetch, connectionID := a.Learner(), a.ConnectionID()
	c.mu.Unlock()
	if fetch == nil {
		return false, nil
	}

	var values map[string]any
	err = c.learn(ctx, actionID, connectionID, func(ctx context.Context) error {
		var err error
		values, err = fetch(ctx)
		return err
	})
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	ac, ok, _ = capable[ActionsControl](c, id, CapActions)
	if !ok {
		return false, nil
	}
	if a, _ = findAction(ac, actionID); a == nil || !a.ApplyLearned(values) {
		return false, nil
	}
	c.commit(ac)
	return true, nil
}

// FeedbackLearn asks a feedback's connection for its live values and
// applies them.
func (c *Controller) FeedbackLearn(ctx context.Context, id, feedbackID string) (bool, error) {
	c.mu.Lock()
	fc, ok, err := capable[FeedbacksControl](c, id, CapFeedbacks)
	if !ok {
		c.mu.Unlock()
		return false, err
	}
	f := fc.Feedbacks().FindByID(feedbackID)
	if f == nil {
		c.mu.Unlock()
		return false, nil
	}
	fetch, connectionID := f.Learner(), f.ConnectionID()
	c.mu.Unlock()
	if fetch == nil {
		return false, nil
	}

	var values map[string]any
	err = c.learn(ctx, feedbackID, connectionID, func(ctx context.Context) error {
		var err error
		values, err = fetch(ctx)
		return err
	})
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fc, ok, _ = capable[FeedbacksControl](c, id, CapFeedbacks)
	if !ok {
		return false, nil
	}
	if f = fc.Feedbacks().FindByID(feedbackID); f == nil || !f.ApplyLearned(values) {
		return false, nil
	}
	c.commit(fc)
	return true, nil
}

// learn wraps StartLearn with telemetry.
func (c *Controller) learn(ctx context.Context, id, connectionID string, fn func(ctx context.Context) error) error {
	start := time.Now()
	err := c.StartLearn(ctx, id, fn)
	if !errors.Is(err, ErrLearnInProgress) {
		c.telemetry.RecordLearn(connectionID, err == nil, time.Since(start))
	}
	if err != nil {
		c.logger.Warn("learn failed", "id", id, "connection_id", connectionID, "error", err)
	}
	return err
}
