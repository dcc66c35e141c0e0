package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"aide/internal/registry"
)

// dispatch runs every requested invocation concurrently under bounded
// parallelism. The round completes only when each request has a result;
// no short-circuit on first failure, since a single model turn may request
// independent tools. Results line up with requests by index and carry the
// request's call id.
func (o *Orchestrator) dispatch(ctx context.Context, calls []registry.InvocationRequest) []*registry.Result {
	results := make([]*registry.Result, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.ToolParallelism)
	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			results[i] = o.registry.Invoke(gctx, call)
			return nil
		})
	}
	// Invoke never returns an error; Wait only joins the workers
	_ = g.Wait()

	return results
}

// dedupeCalls enforces call id uniqueness within one round. The contract
// assumes unique ids but model output is not structurally guaranteed; on a
// collision the later request wins and the earlier is discarded with a
// logged anomaly. Requests with no id get one assigned.
func dedupeCalls(calls []registry.InvocationRequest, log *zap.Logger) []registry.InvocationRequest {
	out := make([]registry.InvocationRequest, 0, len(calls))
	index := make(map[string]int, len(calls))
	for _, c := range calls {
		if c.CallID == "" {
			c.CallID = uuid.NewString()
		}
		if i, seen := index[c.CallID]; seen {
			log.Warn("Call id collision in model turn, later request wins",
				zap.String("call_id", c.CallID),
				zap.String("discarded_tool", out[i].Name),
				zap.String("kept_tool", c.Name),
			)
			out[i] = c
			continue
		}
		index[c.CallID] = len(out)
		out = append(out, c)
	}
	return out
}

// summarizeResults renders one synthetic system turn covering every call in
// the round, success payloads and failure reasons alike, so the model sees
// the outcome of everything it requested.
func summarizeResults(calls []registry.InvocationRequest, results []*registry.Result) string {
	var b strings.Builder
	b.WriteString("[Tool Results]\n")
	for i, res := range results {
		name := calls[i].Name
		if res.Status == registry.StatusSuccess {
			b.WriteString(fmt.Sprintf("[%s] (%s): %s\n", name, res.CallID, renderPayload(res.Payload)))
		} else {
			b.WriteString(fmt.Sprintf("[%s] (%s) ERROR: %s\n", name, res.CallID, res.Error))
		}
	}
	b.WriteString("\nNow provide a helpful response to the user based on these results.")
	return b.String()
}

// renderPayload formats structured tool output for the model's context
func renderPayload(payload interface{}) string {
	switch v := payload.(type) {
	case nil:
		return "ok"
	case string:
		return v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
