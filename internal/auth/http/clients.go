package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/aussiebroadwan/tollgate/pkg/httpx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

// maxClientBody bounds registration payloads.
const maxClientBody = 64 << 10

// ClientsHandler handles the client registry endpoints.
type ClientsHandler struct {
	Registry   *service.Registry
	DefaultTTL int
}

// HandleRegister handles POST /api/v1/clients
//
//	@Summary		Register client
//	@Description	Registers a confidential client. The generated clientSecret is returned once and cannot be retrieved later.
//	@Tags			Clients
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		authsdk.RegisterClientRequest	true	"Client metadata"
//	@Success		201		{object}	authsdk.RegisterClientResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"invalid_client_metadata, invalid_request"
//	@Failure		401		{object}	authsdk.ErrorResponse	"invalid_token"
//	@Failure		500		{object}	authsdk.ErrorResponse	"server_error"
//	@Router			/api/v1/clients [post]
func (h *ClientsHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.RegisterClientRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxClientBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		authsdk.ErrInvalidJSONBody.WriteError(w)
		return
	}

	rc, err := h.Registry.Register(ctx, service.ClientSpec{
		Name:                  req.ClientName,
		TenantID:              req.TenantID,
		Scopes:                req.Scopes,
		GrantTypes:            req.GrantTypes,
		AccessTokenTTLSeconds: req.AccessTokenValiditySeconds,
		ContactEmail:          req.ContactEmail,
		Description:           req.Description,
	})
	if err != nil {
		var specErr *service.ClientSpecError
		if errors.As(err, &specErr) {
			authsdk.ErrInvalidClientMetadata.WithDescription(specErr.Field + " " + specErr.Reason).WriteError(w)
			return
		}
		log.Error("failed to register client", "error", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	c := rc.Client
	httpx.WriteJSON(w, http.StatusCreated, authsdk.RegisterClientResponse{
		ClientID:                   c.ID,
		ClientSecret:               rc.PlaintextSecret,
		ClientName:                 c.Name,
		TenantID:                   c.TenantID,
		Scopes:                     c.Scopes,
		GrantTypes:                 c.GrantTypes,
		AccessTokenValiditySeconds: h.ttlSeconds(c),
		Status:                     string(c.Status),
		CreatedAt:                  c.CreatedAt,
	})
}

// HandleList handles GET /api/v1/clients
//
//	@Summary		List clients
//	@Tags			Clients
//	@Produce		json
//	@Security		BearerAuth
//	@Param			tenantId	query		string	false	"Only clients of this tenant"
//	@Param			status		query		string	false	"Only clients in this status"	Enums(ACTIVE, SUSPENDED, DEPRECATED)
//	@Success		200			{object}	authsdk.ListClientsResponse
//	@Failure		400			{object}	authsdk.ErrorResponse
//	@Failure		401			{object}	authsdk.ErrorResponse
//	@Failure		500			{object}	authsdk.ErrorResponse
//	@Router			/api/v1/clients [get]
func (h *ClientsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	clients, ok := h.list(w, r, "tenantId")
	if !ok {
		return
	}

	out := authsdk.ListClientsResponse{
		Clients:    make([]authsdk.Client, 0, len(clients)),
		TotalCount: len(clients),
	}
	for _, c := range clients {
		out.Clients = append(out.Clients, h.toSDK(c))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleListSummaries handles GET /api/clients
//
//	@Summary		List clients (summary)
//	@Description	Snake_case listing kept for existing dashboards and scripts.
//	@Tags			Clients
//	@Produce		json
//	@Security		BearerAuth
//	@Param			tenant_id	query		string	false	"Only clients of this tenant"
//	@Param			status		query		string	false	"Only clients in this status"	Enums(ACTIVE, SUSPENDED, DEPRECATED)
//	@Success		200			{object}	authsdk.ClientSummaryList
//	@Failure		400			{object}	authsdk.ErrorResponse
//	@Failure		401			{object}	authsdk.ErrorResponse
//	@Failure		500			{object}	authsdk.ErrorResponse
//	@Router			/api/clients [get]
func (h *ClientsHandler) HandleListSummaries(w http.ResponseWriter, r *http.Request) {
	clients, ok := h.list(w, r, "tenant_id")
	if !ok {
		return
	}

	out := authsdk.ClientSummaryList{
		Total:   len(clients),
		Clients: make([]authsdk.ClientSummary, 0, len(clients)),
	}
	for _, c := range clients {
		out.Clients = append(out.Clients, authsdk.ClientSummary{
			ClientID:   c.ID,
			ClientName: c.Name,
			TenantID:   c.TenantID,
			Scopes:     c.Scopes,
			GrantTypes: c.GrantTypes,
			Status:     string(c.Status),
			CreatedAt:  c.CreatedAt,
			LastUsedAt: c.LastUsedAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *ClientsHandler) list(w http.ResponseWriter, r *http.Request, tenantParam string) ([]domain.Client, bool) {
	q := r.URL.Query()
	filter := store.ClientFilter{TenantID: strings.TrimSpace(q.Get(tenantParam))}

	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status := domain.ClientStatus(strings.ToUpper(raw))
		if !status.Valid() {
			authsdk.ErrInvalidRequest.WithDescription("unknown status " + raw).WriteError(w)
			return nil, false
		}
		filter.Status = status
	}

	clients, err := h.Registry.List(r.Context(), filter)
	if err != nil {
		slogx.FromContext(r.Context()).Error("failed to list clients", "error", err)
		authsdk.ErrServerError.WriteError(w)
		return nil, false
	}
	return clients, true
}

// HandleGet handles GET /api/v1/clients/{clientId}
//
//	@Summary		Get client
//	@Tags			Clients
//	@Produce		json
//	@Security		BearerAuth
//	@Param			clientId	path		string	true	"Client ID"
//	@Success		200			{object}	authsdk.Client
//	@Failure		404			{object}	authsdk.ErrorResponse
//	@Router			/api/v1/clients/{clientId} [get]
func (h *ClientsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	c, err := h.Registry.Lookup(r.Context(), r.PathValue("clientId"))
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.toSDK(c))
}

// HandleSecret handles GET /api/v1/clients/{clientId}/secret
//
//	@Summary		Retrieve client secret
//	@Description	Always fails: secrets are stored hashed and only shown at registration.
//	@Tags			Clients
//	@Produce		json
//	@Security		BearerAuth
//	@Param			clientId	path		string	true	"Client ID"
//	@Failure		404			{object}	authsdk.ErrorResponse
//	@Failure		410			{object}	authsdk.ErrorResponse	"secret_not_retrievable"
//	@Router			/api/v1/clients/{clientId}/secret [get]
func (h *ClientsHandler) HandleSecret(w http.ResponseWriter, r *http.Request) {
	err := h.Registry.Secret(r.Context(), r.PathValue("clientId"))
	if errors.Is(err, service.ErrSecretNotRetrievable) {
		authsdk.ErrSecretNotRetrievable.WriteError(w)
		return
	}
	h.writeLookupError(w, r, err)
}

// HandleDeactivate handles DELETE /api/v1/clients/{clientId}
//
//	@Summary		Deactivate client
//	@Description	Marks the client DEPRECATED. It can no longer obtain tokens; issued tokens expire naturally.
//	@Tags			Clients
//	@Produce		json
//	@Security		BearerAuth
//	@Param			clientId	path		string	true	"Client ID"
//	@Success		200			{object}	authsdk.Client
//	@Failure		404			{object}	authsdk.ErrorResponse
//	@Router			/api/v1/clients/{clientId} [delete]
func (h *ClientsHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	c, err := h.Registry.Deactivate(r.Context(), r.PathValue("clientId"))
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.toSDK(c))
}

func (h *ClientsHandler) writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrClientNotFound) {
		authsdk.ErrClientNotFound.WriteError(w)
		return
	}
	slogx.FromContext(r.Context()).Error("client lookup failed", "error", err)
	authsdk.ErrServerError.WriteError(w)
}

func (h *ClientsHandler) ttlSeconds(c domain.Client) int {
	if c.AccessTokenTTL > 0 {
		return int(c.AccessTokenTTL.Seconds())
	}
	return h.DefaultTTL
}

func (h *ClientsHandler) toSDK(c domain.Client) authsdk.Client {
	return authsdk.Client{
		ClientID:                   c.ID,
		ClientName:                 c.Name,
		TenantID:                   c.TenantID,
		Scopes:                     c.Scopes,
		GrantTypes:                 c.GrantTypes,
		AccessTokenValiditySeconds: h.ttlSeconds(c),
		ContactEmail:               c.ContactEmail,
		Description:                c.Description,
		Status:                     string(c.Status),
		CreatedAt:                  c.CreatedAt,
		UpdatedAt:                  c.UpdatedAt,
		LastUsedAt:                 c.LastUsedAt,
	}
}
