package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/questlog-app/questlog-backend/internal/middleware"
	"github.com/questlog-app/questlog-backend/internal/services"
	"github.com/questlog-app/questlog-backend/pkg/utils"
)

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse is the shape returned by signup, login, and refresh.
type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userId"`
}

// issueAndStoreTokens mints a fresh pair and persists the refresh token as
// the user's current one before the pair is handed to the client. The store
// write is what revokes every previously issued refresh token.
func issueAndStoreTokens(userID string) (*TokenResponse, error) {
	access, refresh, err := services.Tokens.IssueTokens(userID)
	if err != nil {
		return nil, err
	}
	if err := services.StoreRefreshToken(userID, refresh); err != nil {
		return nil, err
	}
	return &TokenResponse{Token: access, RefreshToken: refresh, UserID: userID}, nil
}

// Signup registers a new user and logs them in.
func Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" || req.Username == "" {
		writeError(w, http.StatusBadRequest, "Email, username, and password are required")
		return
	}

	emailTaken, err := services.EmailInUse(req.Email)
	if err != nil {
		writeInternalError(w, err, "signup: email lookup failed")
		return
	}
	if emailTaken {
		writeError(w, http.StatusBadRequest, "Email already in use")
		return
	}

	usernameTaken, err := services.UsernameInUse(req.Username)
	if err != nil {
		writeInternalError(w, err, "signup: username lookup failed")
		return
	}
	if usernameTaken {
		writeError(w, http.StatusBadRequest, "Username already in use")
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		writeInternalError(w, err, "signup: password hash failed")
		return
	}

	user, err := services.CreateUser(req.Username, req.Email, req.Fullname, hashedPassword)
	if err != nil {
		writeInternalError(w, err, "signup: create user failed")
		return
	}

	resp, err := issueAndStoreTokens(user.ID.String())
	if err != nil {
		writeInternalError(w, err, "signup: token issuance failed")
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Login verifies credentials and issues a fresh token pair.
func Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := services.GetUserByEmail(req.Email)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		writeInternalError(w, err, "login: user lookup failed")
		return
	}

	valid, err := utils.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !valid {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	resp, err := issueAndStoreTokens(user.ID.String())
	if err != nil {
		writeInternalError(w, err, "login: token issuance failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// RefreshToken exchanges a live refresh token for a new pair. The old
// refresh token stops working the moment the new one is stored.
func RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refreshToken is required")
		return
	}

	userID, err := services.Tokens.VerifyRefresh(req.RefreshToken, services.GetStoredRefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTokenExpired):
			writeError(w, http.StatusForbidden, "Refresh token expired")
		case errors.Is(err, services.ErrTokenInvalid), errors.Is(err, services.ErrTokenRevoked),
			errors.Is(err, services.ErrNotFound):
			writeError(w, http.StatusForbidden, "Invalid refresh token")
		default:
			writeInternalError(w, err, "refresh: verification failed")
		}
		return
	}

	resp, err := issueAndStoreTokens(userID)
	if err != nil {
		writeInternalError(w, err, "refresh: token issuance failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// CheckToken returns 200 when the access token passed the auth middleware.
func CheckToken(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Logout clears the caller's stored refresh token, revoking it.
func Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Access denied")
		return
	}
	if err := services.ClearRefreshToken(userID); err != nil {
		writeInternalError(w, err, "logout: clear refresh token failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}
