package research

import (
	"context"
	"errors"

	"github.com/WessleyAI/wessley-research/engine/domain"
)

// Request is the message form of a research call, as carried over NATS.
// A request with Terms is a refinement and ignores TimeRange.
type Request struct {
	Query     string   `json:"query"`
	TimeRange string   `json:"time_range,omitempty"`
	Terms     []string `json:"terms,omitempty"`
}

// Response answers a Request. Exactly one of Report and Error is set.
type Response struct {
	Report *domain.Report `json:"report,omitempty"`
	Error  string         `json:"error,omitempty"`
	// Kind is no_results, timeout, unexpected, or validation.
	Kind string `json:"kind,omitempty"`
}

// KindValidation labels requests rejected before research starts.
const KindValidation = "validation"

// Handle validates req and runs it. It never returns a transport error;
// failures are reported in the Response.
func (s *Service) Handle(ctx context.Context, req Request) Response {
	if err := validate(req); err != nil {
		return Response{Error: err.Error(), Kind: KindValidation}
	}

	var (
		rep *domain.Report
		err error
	)
	if len(req.Terms) > 0 {
		rep, err = s.RefineSearch(ctx, req.Query, req.Terms)
	} else {
		rep, err = s.Research(ctx, req.Query, req.TimeRange)
	}
	if err != nil {
		return Response{Error: err.Error(), Kind: string(domain.KindOf(err))}
	}
	return Response{Report: rep}
}

func validate(req Request) error {
	if len(req.Terms) > 0 {
		return errors.Join(domain.ValidateRequest(req.Query, ""), domain.ValidateTerms(req.Terms))
	}
	return domain.ValidateRequest(req.Query, req.TimeRange)
}

// Err converts a failed Response back into an error. It returns nil for a
// successful one.
func (r Response) Err() error {
	if r.Error == "" {
		return nil
	}
	switch domain.Kind(r.Kind) {
	case domain.KindNoResults:
		return domain.NewResearchError(domain.KindNoResults, "", errors.New(r.Error))
	case domain.KindTimeout:
		return domain.NewResearchError(domain.KindTimeout, "", errors.New(r.Error))
	case domain.KindUnexpected:
		return domain.NewResearchError(domain.KindUnexpected, "", errors.New(r.Error))
	}
	return errors.New(r.Error)
}
