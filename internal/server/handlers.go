package server

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"smartcollect/internal/assignment"
	"smartcollect/internal/config"
	"smartcollect/internal/domain"
	"smartcollect/internal/engine"
	"smartcollect/internal/export"
	"smartcollect/internal/importer"
)

func registerPortfolio(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "get-portfolio",
		Method:      http.MethodGet,
		Path:        "/portfolio",
		Summary:     "List portfolio accounts",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Account `json:"body"`
	}, error) {
		accounts, err := e.Portfolio(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Account `json:"body"`
		}{Body: accounts}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "replace-portfolio",
		Method:      http.MethodPut,
		Path:        "/portfolio",
		Summary:     "Replace the portfolio wholesale",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body []domain.Account `json:"body"`
	}) (*struct {
		Body []domain.Account `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.ReplacePortfolio(ctx, input.Body, actor, "api"); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Account `json:"body"`
		}{Body: input.Body}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "seed-portfolio",
		Method:        http.MethodPost,
		Path:          "/portfolio/seed",
		Summary:       "Replace the portfolio with generated demo accounts",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body SeedRequest `json:"body"`
	}) (*struct {
		Body []domain.Account `json:"body"`
	}, error) {
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		count := input.Body.Count
		if count < 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "count must be non-negative", nil)
		}
		accounts, err := e.SeedDemo(ctx, count, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Account `json:"body"`
		}{Body: accounts}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "refresh-portfolio",
		Method:      http.MethodPost,
		Path:        "/portfolio/refresh",
		Summary:     "Re-pull the portfolio through the simulated remote feed",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Account `json:"body"`
	}, error) {
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		accounts, err := e.RefreshPortfolio(ctx, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Account `json:"body"`
		}{Body: accounts}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reset-portfolio",
		Method:      http.MethodDelete,
		Path:        "/portfolio",
		Summary:     "Clear the portfolio",
	}, func(ctx context.Context, _ *struct{}) (*struct{}, error) {
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.ResetPortfolio(ctx, actor); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerAccounts(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "get-account",
		Method:      http.MethodGet,
		Path:        "/accounts/{id}",
		Summary:     "Get one account",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body domain.Account `json:"body"`
	}, error) {
		accounts, err := e.Portfolio(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		for _, a := range accounts {
			if a.ID == input.ID {
				return &struct {
					Body domain.Account `json:"body"`
				}{Body: a}, nil
			}
		}
		return nil, newAPIError(http.StatusNotFound, "not_found", fmt.Sprintf("account %s not found", input.ID), nil)
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-account-status",
		Method:      http.MethodPatch,
		Path:        "/accounts/{id}/status",
		Summary:     "Update account workflow status",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID   string        `path:"id"`
		Body StatusRequest `json:"body"`
	}) (*struct {
		Body domain.Account `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		a, err := e.SetStatus(ctx, input.ID, input.Body.Status, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Account `json:"body"`
		}{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "register-contact",
		Method:        http.MethodPost,
		Path:          "/accounts/{id}/contacts",
		Summary:       "Register an outreach contact",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID   string         `path:"id"`
		Body ContactRequest `json:"body"`
	}) (*struct {
		Body domain.Account `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		a, err := e.RegisterContact(ctx, input.ID, input.Body.Channel, input.Body.Note, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Account `json:"body"`
		}{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "suggest-message",
		Method:      http.MethodGet,
		Path:        "/accounts/{id}/message",
		Summary:     "Render the outreach message for an account",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID      string `path:"id"`
		Channel string `query:"channel"`
	}) (*struct {
		Body MessageResponse `json:"body"`
	}, error) {
		msg, err := e.SuggestMessage(ctx, input.ID, input.Channel)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body MessageResponse `json:"body"`
		}{Body: MessageResponse{Message: msg}}, nil
	})
}

func registerPromises(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-promises",
		Method:      http.MethodGet,
		Path:        "/promises",
		Summary:     "Flat promise list with summary",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body PromiseListResponse `json:"body"`
	}, error) {
		flat, summary, err := e.FlatPromises(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body PromiseListResponse `json:"body"`
		}{Body: PromiseListResponse{Items: flat, Summary: summary}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-promise",
		Method:        http.MethodPost,
		Path:          "/accounts/{id}/promises",
		Summary:       "Create a payment promise",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID   string         `path:"id"`
		Body PromiseRequest `json:"body"`
	}) (*struct {
		Body domain.Promise `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		p, err := e.CreatePromise(ctx, input.ID, engine.PromiseOptions{
			Amount:  input.Body.Amount,
			Date:    input.Body.Date,
			Channel: input.Body.Channel,
			Note:    input.Body.Note,
		}, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Promise `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "edit-promise",
		Method:      http.MethodPatch,
		Path:        "/promises/{id}",
		Summary:     "Edit an open promise",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusConflict,
		},
	}, func(ctx context.Context, input *struct {
		ID   string         `path:"id"`
		Body PromiseRequest `json:"body"`
	}) (*struct {
		Body domain.Promise `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		p, err := e.EditPromise(ctx, input.ID, engine.PromiseOptions{
			Amount:  input.Body.Amount,
			Date:    input.Body.Date,
			Channel: input.Body.Channel,
			Note:    input.Body.Note,
		}, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Promise `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "pay-promise",
		Method:      http.MethodPost,
		Path:        "/promises/{id}/pay",
		Summary:     "Mark a promise as paid",
		Errors: []int{
			http.StatusNotFound,
			http.StatusConflict,
		},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body domain.Promise `json:"body"`
	}, error) {
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		p, err := e.PayPromise(ctx, input.ID, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Promise `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-promise",
		Method:      http.MethodPost,
		Path:        "/promises/{id}/cancel",
		Summary:     "Cancel a promise",
		Errors: []int{
			http.StatusNotFound,
			http.StatusConflict,
		},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body domain.Promise `json:"body"`
	}, error) {
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		p, err := e.CancelPromise(ctx, input.ID, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Promise `json:"body"`
		}{Body: p}, nil
	})
}

func registerAssignments(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "get-assignments",
		Method:      http.MethodGet,
		Path:        "/assignments",
		Summary:     "Score, distribute and summarize the portfolio",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body assignment.Result `json:"body"`
	}, error) {
		res, err := e.Distribute(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body assignment.Result `json:"body"`
		}{Body: res}, nil
	})
}

func registerStats(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "get-stats",
		Method:      http.MethodGet,
		Path:        "/stats",
		Summary:     "Dashboard aggregates: aging, tiers, statuses, KPIs",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body engine.Overview `json:"body"`
	}, error) {
		overview, err := e.Overview(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.Overview `json:"body"`
		}{Body: overview}, nil
	})
}

func registerImport(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "infer-import-mapping",
		Method:      http.MethodPost,
		Path:        "/import/infer",
		Summary:     "Infer a column mapping from spreadsheet headers",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body InferRequest `json:"body"`
	}) (*struct {
		Body InferResponse `json:"body"`
	}, error) {
		if len(input.Body.Headers) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "headers are required", nil)
		}
		return &struct {
			Body InferResponse `json:"body"`
		}{Body: InferResponse{
			Mapping: importer.InferMapping(input.Body.Headers),
			Fields:  importer.Fields,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-import-mapping",
		Method:      http.MethodGet,
		Path:        "/import/mapping",
		Summary:     "Saved column mapping from the last confirmed import",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body importer.Mapping `json:"body"`
	}, error) {
		m, err := e.Repo.LoadMapping(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body importer.Mapping `json:"body"`
		}{Body: m}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "preview-import",
		Method:      http.MethodPost,
		Path:        "/import/preview",
		Summary:     "Normalize and validate rows without persisting",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body ImportRows `json:"body"`
	}) (*struct {
		Body importer.Report `json:"body"`
	}, error) {
		if len(input.Body.Rows) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "rows are required", nil)
		}
		report := importer.Validate(importer.Normalize(input.Body.Rows, input.Body.Mapping))
		return &struct {
			Body importer.Report `json:"body"`
		}{Body: report}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "apply-import",
		Method:      http.MethodPost,
		Path:        "/import/apply",
		Summary:     "Import rows as the new portfolio",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		Body ImportRows `json:"body"`
	}) (*struct {
		Body importer.Report `json:"body"`
	}, error) {
		if len(input.Body.Rows) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "rows are required", nil)
		}
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		report, err := e.ApplyImport(ctx, input.Body.Rows, input.Body.Mapping, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body importer.Report `json:"body"`
		}{Body: report}, nil
	})
}

func registerSettings(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "get-settings",
		Method:      http.MethodGet,
		Path:        "/settings",
		Summary:     "Effective settings",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body config.Settings `json:"body"`
	}, error) {
		s, err := e.Repo.LoadSettings(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body config.Settings `json:"body"`
		}{Body: *s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "put-settings",
		Method:      http.MethodPut,
		Path:        "/settings",
		Summary:     "Replace settings",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body config.Settings `json:"body"`
	}) (*struct {
		Body config.Settings `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if _, authErr := actorFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		s := input.Body
		if err := e.Repo.SaveSettings(ctx, &s); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body config.Settings `json:"body"`
		}{Body: s}, nil
	})
}

func registerAudit(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-audit",
		Method:      http.MethodGet,
		Path:        "/audit",
		Summary:     "Recent audit events, newest first",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Limit int `query:"limit" default:"50"`
	}) (*struct {
		Body []domain.AuditEvent `json:"body"`
	}, error) {
		if input.Limit < 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "limit must be non-negative", nil)
		}
		events, err := e.Repo.ListAudit(ctx, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.AuditEvent `json:"body"`
		}{Body: events}, nil
	})
}

// registerExport serves binary downloads directly on the router; the auth
// middleware still applies because the path sits under the API base.
func registerExport(r chi.Router, basePath string, e engine.Engine) {
	r.Get(path.Join(basePath, "portfolio/export"), func(w http.ResponseWriter, req *http.Request) {
		accounts, err := e.Portfolio(req.Context())
		if err != nil {
			respondStatusError(w, handleError(err))
			return
		}
		format := strings.ToLower(req.URL.Query().Get("format"))
		switch format {
		case "", "xlsx":
			w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
			w.Header().Set("Content-Disposition", `attachment; filename="portfolio.xlsx"`)
			if err := export.WriteXLSX(w, accounts); err != nil {
				respondStatusError(w, handleError(err))
			}
		case "csv":
			w.Header().Set("Content-Type", "text/csv")
			w.Header().Set("Content-Disposition", `attachment; filename="portfolio.csv"`)
			if err := export.WriteCSV(w, accounts); err != nil {
				respondStatusError(w, handleError(err))
			}
		default:
			respondStatusError(w, newAPIError(http.StatusBadRequest, "bad_request", "format must be csv or xlsx", nil))
		}
	})
}
