package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/aussiebroadwan/tollgate/pkg/httpx"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

// KeyRotationHandler exposes signing key management. Works the same in
// ephemeral and persistent modes.
type KeyRotationHandler struct {
	KeyRotationService *service.KeyRotationService
}

// HandleRotate handles POST /api/v1/keys/rotate
//
//	@Summary		Rotate signing key
//	@Description	Generates a new active key. The previous key is retired and stays in the JWKS for the retention window.
//	@Tags			Keys
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	authsdk.RotateKeyResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"Unauthorized"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal Server Error"
//	@Router			/api/v1/keys/rotate [post]
func (h *KeyRotationHandler) HandleRotate(w http.ResponseWriter, r *http.Request) {
	rot, err := h.KeyRotationService.Rotate(r.Context(), service.TriggerManual)
	if err != nil {
		authsdk.ErrServerError.WithDescription("key rotation failed").WriteError(w)
		return
	}

	resp := authsdk.RotateKeyResponse{New: keyToSDK(rot.New)}
	if rot.Retired != nil {
		retired := keyToSDK(*rot.Retired)
		resp.Retired = &retired
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleListKeys handles GET /api/v1/keys
//
//	@Summary		List signing keys
//	@Description	Lists the active key and retired keys still inside their retention window.
//	@Tags			Keys
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	authsdk.ListKeysResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"Unauthorized"
//	@Router			/api/v1/keys [get]
func (h *KeyRotationHandler) HandleListKeys(w http.ResponseWriter, r *http.Request) {
	listing := h.KeyRotationService.ListKeys()

	resp := authsdk.ListKeysResponse{
		Algorithm:  listing.Algorithm,
		Persistent: listing.Persistent,
		Retention:  listing.Retention,
		Keys:       make([]authsdk.SigningKeyInfo, 0, len(listing.Keys)),
	}
	for _, k := range listing.Keys {
		resp.Keys = append(resp.Keys, keyToSDK(k))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleRetireKey handles POST /api/v1/keys/{kid}/retire
//
//	@Summary		Retire signing key
//	@Description	Retires a key without a replacement. Retiring the active key disables issuance until the next rotation.
//	@Tags			Keys
//	@Produce		json
//	@Security		BearerAuth
//	@Param			kid	path		string	true	"Key ID"
//	@Success		200	{object}	authsdk.SigningKeyInfo
//	@Failure		404	{object}	authsdk.ErrorResponse	"not_found"
//	@Failure		409	{object}	authsdk.ErrorResponse	"key_already_retired"
//	@Router			/api/v1/keys/{kid}/retire [post]
func (h *KeyRotationHandler) HandleRetireKey(w http.ResponseWriter, r *http.Request) {
	info, err := h.KeyRotationService.Retire(r.Context(), r.PathValue("kid"))
	switch {
	case errors.Is(err, service.ErrKeyNotFound):
		authsdk.ErrKeyNotFound.WriteError(w)
		return
	case errors.Is(err, service.ErrKeyAlreadyRetired):
		authsdk.ErrKeyAlreadyRetired.WriteError(w)
		return
	case err != nil:
		slogx.FromContext(r.Context()).Error("failed to retire key", "error", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, keyToSDK(info))
}

func keyToSDK(k jwtx.KeyInfo) authsdk.SigningKeyInfo {
	return authsdk.SigningKeyInfo{
		Kid:        k.Kid,
		Algorithm:  k.Algorithm,
		State:      string(k.State),
		CreatedAt:  k.CreatedAt,
		RetiredAt:  k.RetiredAt,
		PurgeAfter: k.PurgeAfter,
	}
}
