package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ekisa-team/stronghold/internal/model"
	"github.com/ekisa-team/stronghold/internal/stronghold"
)

type (
	ModelDTO struct {
		ID       string     `json:"id"`
		Active   bool       `json:"active"`
		Source   string     `json:"source,omitempty"`
		Location string     `json:"location,omitempty"`
		Status   string     `json:"status,omitempty"`
		Version  string     `json:"version,omitempty"`
		Checksum string     `json:"checksum,omitempty"`
		LoadedAt *time.Time `json:"loaded_at,omitempty"`
		Error    string     `json:"error,omitempty"`
		Reloads  int        `json:"reloads"`
	}

	ModelListDTO struct {
		Default string     `json:"default"`
		Active  string     `json:"active,omitempty"`
		Models  []ModelDTO `json:"models"`
	}

	RegisterModelDTO struct {
		Internal string `json:"internal,omitempty" doc:"Name of a bundled model archive"`
		External string `json:"external,omitempty" doc:"Filesystem path of a model archive or directory"`
	}

	SetActiveDTO struct {
		ID string `json:"id" minLength:"1"`
	}

	ReloadResultDTO struct {
		ModelID    string `json:"model_id"`
		OK         bool   `json:"ok"`
		Error      string `json:"error,omitempty"`
		DurationMS int64  `json:"duration_ms"`
	}

	ReloadReportDTO struct {
		ID         string            `json:"id"`
		OK         bool              `json:"ok"`
		DurationMS int64             `json:"duration_ms"`
		Results    []ReloadResultDTO `json:"results"`
	}
)

type (
	ModelIDInput struct {
		ID string `path:"id" minLength:"1"`
	}

	RegisterModelInput struct {
		Body RegisterModelDTO
	}

	SetActiveInput struct {
		Body SetActiveDTO
	}

	ListModelsOutput struct {
		Body ModelListDTO
	}

	ModelOutput struct {
		Body ModelDTO
	}

	ReloadReportOutput struct {
		Body ReloadReportDTO
	}
)

// describer is implemented by handles that can report their load state.
type describer interface {
	Info() stronghold.Info
}

// ModelsHandler handles HTTP requests for the model registry.
type ModelsHandler struct {
	registry *model.Registry
}

// NewModelsHandler creates a new ModelsHandler and registers its operations.
func NewModelsHandler(api huma.API, registry *model.Registry) *ModelsHandler {
	h := &ModelsHandler{registry: registry}

	huma.Register(api, huma.Operation{
		OperationID: "list-models",
		Method:      http.MethodGet,
		Path:        "/models",
		Summary:     "List registered models",
		Tags:        []string{"models"},
	}, h.handleList)

	huma.Register(api, huma.Operation{
		OperationID:   "register-model",
		Method:        http.MethodPost,
		Path:          "/models",
		Summary:       "Register a bundled or external model",
		Tags:          []string{"models"},
		DefaultStatus: http.StatusCreated,
	}, h.handleRegister)

	huma.Register(api, huma.Operation{
		OperationID: "get-active-model",
		Method:      http.MethodGet,
		Path:        "/models/active",
		Summary:     "Get the active model",
		Tags:        []string{"models"},
	}, h.handleGetActive)

	huma.Register(api, huma.Operation{
		OperationID:   "set-active-model",
		Method:        http.MethodPut,
		Path:          "/models/active",
		Summary:       "Select the active model",
		Tags:          []string{"models"},
		DefaultStatus: http.StatusNoContent,
	}, h.handleSetActive)

	huma.Register(api, huma.Operation{
		OperationID: "reload-models",
		Method:      http.MethodPost,
		Path:        "/models/reload",
		Summary:     "Reload every model",
		Tags:        []string{"models"},
	}, h.handleReloadAll)

	huma.Register(api, huma.Operation{
		OperationID: "get-model",
		Method:      http.MethodGet,
		Path:        "/models/{id}",
		Summary:     "Get a model",
		Tags:        []string{"models"},
	}, h.handleGet)

	huma.Register(api, huma.Operation{
		OperationID: "reload-model",
		Method:      http.MethodPost,
		Path:        "/models/{id}/reload",
		Summary:     "Reload one model",
		Tags:        []string{"models"},
	}, h.handleReload)

	return h
}

// handleList handles the list-models operation.
func (h *ModelsHandler) handleList(ctx context.Context, _ *struct{}) (*ListModelsOutput, error) {
	ids := h.registry.RegisteredIdentifiers()

	out := &ListModelsOutput{
		Body: ModelListDTO{
			Default: h.registry.DefaultModelIdentifier(),
			Models:  make([]ModelDTO, 0, len(ids)),
		},
	}
	if active, ok := h.registry.ActiveModel(); ok {
		out.Body.Active = active.Identifier()
	}

	for _, id := range ids {
		handle, err := h.registry.Model(id)
		if err != nil {
			continue
		}
		out.Body.Models = append(out.Body.Models, h.toDTO(handle))
	}

	return out, nil
}

// handleRegister handles the register-model operation.
func (h *ModelsHandler) handleRegister(ctx context.Context, input *RegisterModelInput) (*ModelOutput, error) {
	var (
		handle model.Handle
		err    error
	)

	switch body := input.Body; {
	case body.Internal != "" && body.External == "":
		handle, err = h.registry.RegisterInternal(body.Internal)
	case body.External != "" && body.Internal == "":
		handle, err = h.registry.RegisterExternal(body.External)
	default:
		return nil, huma.Error422UnprocessableEntity("exactly one of internal or external must be set")
	}
	if err != nil {
		return nil, toHTTPError(err)
	}

	return &ModelOutput{Body: h.toDTO(handle)}, nil
}

// handleGetActive handles the get-active-model operation.
func (h *ModelsHandler) handleGetActive(ctx context.Context, _ *struct{}) (*ModelOutput, error) {
	active, ok := h.registry.ActiveModel()
	if !ok {
		return nil, huma.Error404NotFound("no active model selected")
	}

	return &ModelOutput{Body: h.toDTO(active)}, nil
}

// handleSetActive handles the set-active-model operation.
func (h *ModelsHandler) handleSetActive(ctx context.Context, input *SetActiveInput) (*struct{}, error) {
	if err := h.registry.SetActiveModel(input.Body.ID); err != nil {
		return nil, toHTTPError(err)
	}

	return nil, nil
}

// handleGet handles the get-model operation.
func (h *ModelsHandler) handleGet(ctx context.Context, input *ModelIDInput) (*ModelOutput, error) {
	handle, err := h.registry.Model(input.ID)
	if err != nil {
		return nil, toHTTPError(err)
	}

	return &ModelOutput{Body: h.toDTO(handle)}, nil
}

// handleReload handles the reload-model operation.
func (h *ModelsHandler) handleReload(ctx context.Context, input *ModelIDInput) (*ModelOutput, error) {
	if err := h.registry.ForceReload(input.ID); err != nil {
		return nil, toHTTPError(err)
	}

	handle, err := h.registry.Model(input.ID)
	if err != nil {
		return nil, toHTTPError(err)
	}

	return &ModelOutput{Body: h.toDTO(handle)}, nil
}

// handleReloadAll handles the reload-models operation.
func (h *ModelsHandler) handleReloadAll(ctx context.Context, _ *struct{}) (*ReloadReportOutput, error) {
	report := h.registry.ForceReloadAll(ctx)

	body := ReloadReportDTO{
		ID:         report.ID.String(),
		OK:         report.OK(),
		DurationMS: report.Duration.Milliseconds(),
		Results:    make([]ReloadResultDTO, 0, len(report.Results)),
	}
	for _, res := range report.Results {
		dto := ReloadResultDTO{
			ModelID:    res.ModelID,
			OK:         res.OK(),
			DurationMS: res.Duration.Milliseconds(),
		}
		if res.Err != nil {
			dto.Error = res.Err.Error()
		}
		body.Results = append(body.Results, dto)
	}

	return &ReloadReportOutput{Body: body}, nil
}

func (h *ModelsHandler) toDTO(handle model.Handle) ModelDTO {
	dto := ModelDTO{
		ID:     handle.Identifier(),
		Active: h.registry.IsActiveModel(handle.Identifier()),
	}

	if d, ok := handle.(describer); ok {
		info := d.Info()
		dto.Source = string(info.Source)
		dto.Location = info.Location
		dto.Status = string(info.Status)
		dto.Version = info.Version
		dto.Checksum = info.Checksum
		dto.LoadedAt = info.LoadedAt
		dto.Error = info.Error
		dto.Reloads = info.Reloads
	}

	return dto
}

// toHTTPError maps registry errors to HTTP errors.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, model.ErrUnknownIdentifier):
		return huma.Error404NotFound("model not found", err)
	case errors.Is(err, model.ErrDuplicateIdentifier):
		return huma.Error409Conflict("model already registered", err)
	case errors.Is(err, model.ErrInvalidIdentifier), errors.Is(err, stronghold.ErrInvalidSource):
		return huma.Error422UnprocessableEntity("invalid model source", err)
	case errors.Is(err, model.ErrReloadFailure):
		return huma.Error500InternalServerError("model reload failed", err)
	default:
		return huma.Error500InternalServerError("registry operation failed", err)
	}
}
