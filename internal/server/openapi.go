package server

import (
	"encoding/json"
	"net/http"
	"strings"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/spottheball/internal/access"
	"github.com/playperu/spottheball/internal/handler/health"
	"github.com/playperu/spottheball/internal/spotball"
)

type response struct {
	status      int
	body        any
	contentType string
}

type operation struct {
	method, path         string
	summary, description string
	params               any
	request              any
	responses            []response
}

type competitionPath struct {
	ID string `path:"id"`
}

type participantPath struct {
	ID            string `path:"id"`
	ParticipantID string `path:"participantID"`
}

type eventsParams struct {
	ID    string `path:"id"`
	Token string `query:"token" description:"Admin token for clients that cannot set headers."`
}

func success(body any) response { return response{status: http.StatusOK, body: body} }
func created(body any) response { return response{status: http.StatusCreated, body: body} }

// failures documents the "fail"/"error" envelope for each status.
func failures(statuses ...int) []response {
	out := make([]response, len(statuses))
	for i, s := range statuses {
		out[i] = response{status: s, body: Envelope{}}
	}
	return out
}

func withFailures(success response, statuses ...int) []response {
	return append([]response{success}, failures(statuses...)...)
}

var apiOperations = []operation{
	{
		method: http.MethodGet, path: "/healthz",
		summary:     "Health check",
		description: "Reports reachability of the database and result cache.",
		responses: []response{
			{status: http.StatusOK, body: health.Report{}},
			{status: http.StatusServiceUnavailable, body: health.Report{}},
		},
	},
	{
		method: http.MethodPost, path: "/admin/login",
		summary:     "Admin login",
		description: "Exchanges admin credentials for an admin bearer token.",
		request:     AdminLoginRequest{},
		responses:   withFailures(success(access.Grant{}), 400, 401),
	},
	{
		method: http.MethodGet, path: "/admin/competitions",
		summary:   "List competitions",
		responses: withFailures(success([]CompetitionResponse{}), 401, 403),
	},
	{
		method: http.MethodPost, path: "/admin/competitions",
		summary:   "Create competition",
		request:   CompetitionRequest{},
		responses: withFailures(created(CompetitionResponse{}), 400, 401, 403),
	},
	{
		method: http.MethodGet, path: "/admin/competitions/{id}",
		summary:   "Get competition",
		responses: withFailures(success(CompetitionResponse{}), 401, 403, 404),
	},
	{
		method: http.MethodPatch, path: "/admin/competitions/{id}",
		summary:     "Update competition",
		description: "Partial update. maxEntries cannot drop below the tickets already issued.",
		request:     CompetitionRequest{},
		responses:   withFailures(success(CompetitionResponse{}), 400, 401, 403, 404),
	},
	{
		method: http.MethodPost, path: "/admin/competitions/{id}/close",
		summary:   "Close competition",
		responses: withFailures(success(CompetitionResponse{}), 401, 403, 404, 409),
	},
	{
		method: http.MethodGet, path: "/admin/competitions/{id}/participants",
		summary:   "List participants",
		responses: withFailures(success([]ParticipantResponse{}), 401, 403, 404),
	},
	{
		method: http.MethodPost, path: "/admin/competitions/{id}/participants",
		summary:   "Register participant",
		request:   ParticipantRequest{},
		responses: withFailures(created(ParticipantResponse{}), 400, 401, 403, 404, 409),
	},
	{
		method: http.MethodDelete, path: "/admin/competitions/{id}/participants/{participantID}",
		summary:     "Delete participant",
		params:      participantPath{},
		description: "Removes the participant and releases their tickets. Rejected once results are locked.",
		responses:   withFailures(success(nil), 401, 403, 404, 409),
	},
	{
		method: http.MethodPost, path: "/admin/competitions/{id}/assign-tickets",
		summary:     "Assign tickets",
		description: "Issues tickets to a participant, bounded by the competition's remaining slots.",
		request:     AssignTicketsRequest{},
		responses:   withFailures(created(AssignTicketsResponse{}), 400, 401, 403, 404, 409),
	},
	{
		method: http.MethodPatch, path: "/admin/competitions/{id}/final-result",
		summary:   "Set judged ball position",
		request:   FinalResultRequest{},
		responses: withFailures(success(CompetitionResponse{}), 400, 401, 403, 404, 409),
	},
	{
		method: http.MethodPost, path: "/admin/competitions/{id}/compute-winner",
		summary:   "Compute winners",
		responses: withFailures(success(spotball.WinnerResult{}), 401, 403, 404, 412),
	},
	{
		method: http.MethodGet, path: "/admin/competitions/{id}/winners",
		summary:   "Get winners",
		responses: withFailures(success(spotball.WinnerResult{}), 401, 403, 404, 412),
	},
	{
		method: http.MethodPost, path: "/admin/competitions/{id}/lock-result",
		summary:     "Lock results",
		description: "Freezes the ranking. Requires a closed competition with a judged position.",
		responses:   withFailures(success(spotball.WinnerResult{}), 401, 403, 404, 409, 412),
	},
	{
		method: http.MethodGet, path: "/admin/competitions/{id}/export",
		summary:     "Export results",
		description: "CSV with one row per marker, plus rows for participants without entries.",
		responses: append([]response{{status: http.StatusOK, contentType: "text/csv"}},
			failures(401, 403, 404)...),
	},
	{
		method: http.MethodGet, path: "/admin/competitions/{id}/events",
		summary:     "Competition event stream",
		params:      eventsParams{},
		description: "Server-Sent Events. EventSource clients may pass the admin token as ?token=.",
		responses: append([]response{{status: http.StatusOK, contentType: "text/event-stream"}},
			failures(401, 403, 404)...),
	},
	{
		method: http.MethodPost, path: "/competitions/{id}/verify-password",
		summary:     "Verify invite password",
		description: "Exchanges the competition's invite password for a competition access token.",
		request:     VerifyPasswordRequest{},
		responses:   withFailures(success(access.Grant{}), 400, 401, 404),
	},
	{
		method: http.MethodGet, path: "/competitions/{id}",
		summary:   "Public competition view",
		responses: withFailures(success(PublicCompetitionResponse{}), 401, 403, 404),
	},
	{
		method: http.MethodPost, path: "/competitions/{id}/participants/authenticate",
		summary:     "Authenticate participant",
		description: "Matches name and phone against the registered participant. Requires a competition access token.",
		request:     AuthenticateRequest{},
		responses:   withFailures(success(AuthenticateResponse{}), 400, 401, 403, 404),
	},
	{
		method: http.MethodGet, path: "/competitions/{id}/entries",
		summary:   "Get own tickets",
		responses: withFailures(success(ParticipantResponse{}), 401, 403, 404),
	},
	{
		method: http.MethodPost, path: "/competitions/{id}/entries",
		summary:     "Submit markers",
		description: "Submits markers for one or more tickets. All tickets are accepted or none are.",
		request:     EntriesRequest{},
		responses:   withFailures(success(ParticipantResponse{}), 400, 401, 403, 404, 409),
	},
}

func newOpenAPISpec() (*openapi3.Spec, error) {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Spot the Ball API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Competition engine for spot-the-ball contests. " +
		`Successful responses are wrapped as {"status":"success","data":...}.`)

	for _, op := range apiOperations {
		oc, err := r.NewOperationContext(op.method, op.path)
		if err != nil {
			return nil, err
		}
		oc.SetSummary(op.summary)
		if op.description != "" {
			oc.SetDescription(op.description)
		}
		if op.params == nil && strings.Contains(op.path, "{id}") {
			op.params = competitionPath{}
		}
		if op.params != nil {
			oc.AddReqStructure(op.params)
		}
		if op.request != nil {
			oc.AddReqStructure(op.request)
		}
		for _, resp := range op.responses {
			opts := []openapi.ContentOption{openapi.WithHTTPStatus(resp.status)}
			if resp.contentType != "" {
				opts = append(opts, openapi.WithContentType(resp.contentType))
			}
			oc.AddRespStructure(resp.body, opts...)
		}
		if err := r.AddOperation(oc); err != nil {
			return nil, err
		}
	}

	return r.Spec, nil
}

func handleOpenAPI() http.HandlerFunc {
	spec, err := newOpenAPISpec()
	if err != nil {
		panic("building openapi spec: " + err.Error())
	}
	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		panic("encoding openapi spec: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
