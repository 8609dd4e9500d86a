package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/nhle/countdown/internal/model"
	"github.com/nhle/countdown/internal/store"
)

type idPath struct {
	ID string `path:"id"`
}

type namePath struct {
	Name string `path:"name"`
}

type timerOutput struct {
	Body model.Timer `json:"body"`
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerTimers(api huma.API, cfg Config) {
	e := cfg.Engine

	huma.Register(api, huma.Operation{
		OperationID: "list-timers",
		Method:      http.MethodGet,
		Path:        "/timers",
		Summary:     "List timers",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []model.Timer `json:"body"`
	}, error) {
		return &struct {
			Body []model.Timer `json:"body"`
		}{Body: e.List()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-timer",
		Method:        http.MethodPost,
		Path:          "/timers",
		Summary:       "Create timer",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusConflict, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body TimerRequest `json:"body"`
	}) (*timerOutput, error) {
		t, err := e.CreateTimer(ctx, input.Body.toNewTimer())
		if err != nil {
			return nil, handleError(err)
		}
		return &timerOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-timer",
		Method:      http.MethodGet,
		Path:        "/timers/{id}",
		Summary:     "Get timer",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*timerOutput, error) {
		t, ok := e.Timer(input.ID)
		if !ok {
			return nil, newAPIError(http.StatusNotFound, "", "timer not found")
		}
		return &timerOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-timer",
		Method:      http.MethodPut,
		Path:        "/timers/{id}",
		Summary:     "Edit timer",
		Description: "Editing a running timer pauses it first.",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		ID   string       `path:"id"`
		Body TimerRequest `json:"body"`
	}) (*timerOutput, error) {
		if _, ok := e.Timer(input.ID); !ok {
			return nil, newAPIError(http.StatusNotFound, "", "timer not found")
		}
		t, err := e.UpdateTimer(ctx, input.ID, input.Body.toNewTimer())
		if err != nil {
			return nil, handleError(err)
		}
		return &timerOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-timer",
		Method:        http.MethodDelete,
		Path:          "/timers/{id}",
		Summary:       "Delete timer",
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *idPath) (*struct{}, error) {
		return nil, handleError(e.Delete(ctx, input.ID))
	})

	controls := map[string]func(context.Context, string) error{
		"start": e.Start,
		"pause": e.Pause,
		"reset": e.Reset,
	}
	for action, op := range controls {
		huma.Register(api, huma.Operation{
			OperationID:   action + "-timer",
			Method:        http.MethodPost,
			Path:          "/timers/{id}/" + action,
			Summary:       "Control timer: " + action,
			DefaultStatus: http.StatusNoContent,
		}, func(ctx context.Context, input *idPath) (*struct{}, error) {
			return nil, handleError(op(ctx, input.ID))
		})
	}
}

func registerCategories(api huma.API, cfg Config) {
	e, timers := cfg.Engine, cfg.Timers

	huma.Register(api, huma.Operation{
		OperationID: "list-categories",
		Method:      http.MethodGet,
		Path:        "/categories",
		Summary:     "List categories",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []string `json:"body"`
	}, error) {
		return &struct {
			Body []string `json:"body"`
		}{Body: timers.ListCategories()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-category",
		Method:        http.MethodPost,
		Path:          "/categories",
		Summary:       "Add category",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		Body CategoryRequest `json:"body"`
	}) (*struct {
		Body []string `json:"body"`
	}, error) {
		if err := timers.AddCategory(ctx, input.Body.Name); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []string `json:"body"`
		}{Body: timers.ListCategories()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-category",
		Method:        http.MethodDelete,
		Path:          "/categories/{name}",
		Summary:       "Delete category",
		Description:   "Timers in the category keep their label.",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusConflict},
	}, func(ctx context.Context, input *namePath) (*struct{}, error) {
		return nil, handleError(timers.DeleteCategory(ctx, input.Name))
	})

	bulk := map[string]func(context.Context, string) error{
		"start": e.StartAllInCategory,
		"pause": e.PauseAllInCategory,
		"reset": e.ResetAllInCategory,
	}
	for action, op := range bulk {
		huma.Register(api, huma.Operation{
			OperationID:   action + "-category",
			Method:        http.MethodPost,
			Path:          "/categories/{name}/" + action,
			Summary:       "Control every timer in a category: " + action,
			DefaultStatus: http.StatusNoContent,
		}, func(ctx context.Context, input *namePath) (*struct{}, error) {
			return nil, handleError(op(ctx, input.Name))
		})
	}
}

func registerHistory(api huma.API, cfg Config) {
	history := cfg.History

	huma.Register(api, huma.Operation{
		OperationID: "list-history",
		Method:      http.MethodGet,
		Path:        "/history",
		Summary:     "List completed sessions, most recent first",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []model.HistoryEntry `json:"body"`
	}, error) {
		return &struct {
			Body []model.HistoryEntry `json:"body"`
		}{Body: history.List()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "clear-history",
		Method:        http.MethodDelete,
		Path:          "/history",
		Summary:       "Clear history",
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, _ *struct{}) (*struct{}, error) {
		return nil, handleError(history.Clear(ctx))
	})

	huma.Register(api, huma.Operation{
		OperationID: "export-history",
		Method:      http.MethodGet,
		Path:        "/history/export",
		Summary:     "Export history as a file",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Format string `query:"format" required:"false" doc:"json or yaml"`
	}) (*struct {
		ContentType        string `header:"Content-Type"`
		ContentDisposition string `header:"Content-Disposition"`
		Body               []byte
	}, error) {
		format := input.Format
		if format == "" {
			format = cfg.ExportFormat
		}

		var (
			data        []byte
			err         error
			contentType string
		)
		switch format {
		case store.FormatJSON:
			data, err = history.Export()
			contentType = "application/json"
		case store.FormatYAML:
			data, err = history.ExportYAML()
			contentType = "application/yaml"
		default:
			return nil, newAPIError(http.StatusBadRequest, "", "unsupported export format")
		}
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			ContentType        string `header:"Content-Type"`
			ContentDisposition string `header:"Content-Disposition"`
			Body               []byte
		}{
			ContentType:        contentType,
			ContentDisposition: `attachment; filename="` + store.ExportBaseName + "." + format + `"`,
			Body:               data,
		}, nil
	})
}

func registerAlerts(api huma.API, cfg Config) {
	inbox := cfg.Inbox
	if inbox == nil {
		return
	}

	huma.Register(api, huma.Operation{
		OperationID: "list-alerts",
		Method:      http.MethodGet,
		Path:        "/alerts",
		Summary:     "List delivered alerts",
	}, func(ctx context.Context, input *struct {
		Unread bool `query:"unread" required:"false"`
		Limit  int  `query:"limit" required:"false" minimum:"0"`
	}) (*struct {
		Body []model.Notification `json:"body"`
	}, error) {
		var (
			list []model.Notification
			err  error
		)
		if input.Unread {
			list, err = inbox.GetUnreadNotifications(ctx)
		} else {
			list, err = inbox.GetNotifications(ctx, input.Limit)
		}
		if err != nil {
			return nil, handleError(err)
		}
		if list == nil {
			list = []model.Notification{}
		}
		return &struct {
			Body []model.Notification `json:"body"`
		}{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "read-alerts",
		Method:        http.MethodPost,
		Path:          "/alerts/read",
		Summary:       "Mark every alert as read",
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, _ *struct{}) (*struct{}, error) {
		return nil, handleError(inbox.MarkAllNotificationsRead(ctx))
	})
}
