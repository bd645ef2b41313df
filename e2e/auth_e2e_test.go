//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultHTTPBase  = "http://localhost:8080"
	defaultRedisAddr = "localhost:6379"
)

type httpClient struct {
	baseURL string
	client  *http.Client
}

func newHTTPClient() *httpClient {
	base := os.Getenv("AUTH_HTTP_URL")
	if base == "" {
		base = defaultHTTPBase
	}
	return &httpClient{
		baseURL: base,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *httpClient) doJSON(t *testing.T, method, path, accessToken string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal failed: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		t.Fatalf("new request failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("http request failed: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := ioReadAll(resp)
	if err != nil {
		t.Fatalf("read response failed: %v", err)
	}
	return resp, bodyBytes
}

func (c *httpClient) postJSON(t *testing.T, path string, body any) (*http.Response, []byte) {
	t.Helper()
	return c.doJSON(t, http.MethodPost, path, "", body)
}

func waitForHTTP(baseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 2 * time.Second}
	for time.Now().Before(deadline) {
		req, _ := http.NewRequest(http.MethodPost, baseURL+"/auth/login", bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Content-Type", "application/json")
		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusBadRequest {
				return nil
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("http service not ready at %s", baseURL)
}

// Verification and reset codes are delivered through the mail queue, so the
// harness reads them straight out of Redis instead of an inbox.
func newRedisClient() *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = defaultRedisAddr
	}
	return redis.NewClient(&redis.Options{Addr: addr})
}

func redisCode(t *testing.T, rdb *redis.Client, key string) string {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		code, err := rdb.Get(context.Background(), key).Result()
		if err == nil && code != "" {
			return code
		}
		time.Sleep(200 * time.Millisecond)
	}
	t.Fatalf("no code found in redis at %s", key)
	return ""
}

func TestAuthE2E_HTTPFlow(t *testing.T) {
	httpBase := os.Getenv("AUTH_HTTP_URL")
	if httpBase == "" {
		httpBase = defaultHTTPBase
	}
	if err := waitForHTTP(httpBase, 30*time.Second); err != nil {
		t.Fatalf("http not ready: %v", err)
	}

	client := newHTTPClient()
	rdb := newRedisClient()
	defer rdb.Close()

	state := struct {
		email           string
		password        string
		newPassword     string
		verifyCode      string
		resetCode       string
		userID          uint64
		accessToken     string
		refreshToken    string
		newRefreshToken string
		todoID          uint64
	}{
		email:       fmt.Sprintf("e2e+%d@example.com", time.Now().UnixNano()),
		password:    "StrongPass1!",
		newPassword: "NewStrongPass1!",
	}

	abort := false
	fail := func(t *testing.T, format string, args ...any) {
		abort = true
		t.Fatalf(format, args...)
	}

	step := func(name string, fn func(t *testing.T)) {
		t.Run(name, func(t *testing.T) {
			if abort {
				t.Skip("previous step failed")
			}
			fn(t)
		})
	}

	step("LoginBeforeRegister", func(t *testing.T) {
		resp, _ := client.postJSON(t, "/auth/login", map[string]string{
			"email":    state.email,
			"password": state.password,
		})
		if resp.StatusCode != http.StatusNotFound {
			fail(t, "expected login before register to fail, got %d", resp.StatusCode)
		}
	})

	step("RegisterBeforeVerification", func(t *testing.T) {
		resp, _ := client.postJSON(t, "/auth/register", map[string]string{
			"email":    state.email,
			"password": state.password,
			"username": "e2e-user",
			"birthday": "1990-01-02",
		})
		if resp.StatusCode != http.StatusBadRequest {
			fail(t, "expected register without verification to fail, got %d", resp.StatusCode)
		}
	})

	step("RequestVerification", func(t *testing.T) {
		resp, body := client.postJSON(t, "/auth/request-verification", map[string]string{
			"email": state.email,
		})
		if resp.StatusCode != http.StatusOK {
			fail(t, "request verification status: %d body: %s", resp.StatusCode, string(body))
		}
		state.verifyCode = redisCode(t, rdb, "verify:code:"+state.email)
	})

	step("VerifyWrongCode", func(t *testing.T) {
		resp, _ := client.postJSON(t, "/auth/verify-code", map[string]string{
			"email": state.email,
			"code":  "000000",
		})
		if resp.StatusCode != http.StatusBadRequest {
			fail(t, "expected wrong code to fail, got %d", resp.StatusCode)
		}
	})

	step("VerifyCode", func(t *testing.T) {
		resp, body := client.postJSON(t, "/auth/verify-code", map[string]string{
			"email": state.email,
			"code":  state.verifyCode,
		})
		if resp.StatusCode != http.StatusOK {
			fail(t, "verify code status: %d body: %s", resp.StatusCode, string(body))
		}
	})

	step("RegisterWeakPassword", func(t *testing.T) {
		resp, _ := client.postJSON(t, "/auth/register", map[string]string{
			"email":    state.email,
			"password": "short",
			"username": "e2e-user",
			"birthday": "1990-01-02",
		})
		if resp.StatusCode != http.StatusBadRequest {
			fail(t, "expected weak password register to fail, got %d", resp.StatusCode)
		}
	})

	step("Register", func(t *testing.T) {
		resp, body := client.postJSON(t, "/auth/register", map[string]string{
			"email":    state.email,
			"password": state.password,
			"username": "e2e-user",
			"birthday": "1990-01-02",
		})
		if resp.StatusCode != http.StatusCreated {
			fail(t, "register status: %d body: %s", resp.StatusCode, string(body))
		}

		var regRes struct {
			UserID          uint64 `json:"user_id"`
			IsEmailVerified bool   `json:"is_email_verified"`
		}
		if err := json.Unmarshal(body, &regRes); err != nil {
			fail(t, "register unmarshal failed: %v", err)
		}
		if regRes.UserID == 0 || !regRes.IsEmailVerified {
			fail(t, "expected verified user with id, got %s", string(body))
		}
		state.userID = regRes.UserID
	})

	step("RegisterDuplicate", func(t *testing.T) {
		resp, _ := client.postJSON(t, "/auth/register", map[string]string{
			"email":    state.email,
			"password": state.password,
			"username": "e2e-user",
			"birthday": "1990-01-02",
		})
		if resp.StatusCode != http.StatusBadRequest {
			fail(t, "expected duplicate register to fail, got %d", resp.StatusCode)
		}
	})

	step("RequestVerificationExistingEmail", func(t *testing.T) {
		resp, _ := client.postJSON(t, "/auth/request-verification", map[string]string{
			"email": state.email,
		})
		if resp.StatusCode != http.StatusConflict {
			fail(t, "expected verification request for registered email to conflict, got %d", resp.StatusCode)
		}
	})

	step("Login", func(t *testing.T) {
		resp, body := client.postJSON(t, "/auth/login", map[string]string{
			"email":    state.email,
			"password": state.password,
		})
		if resp.StatusCode != http.StatusOK {
			fail(t, "login status: %d body: %s", resp.StatusCode, string(body))
		}

		var loginRes struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		}
		if err := json.Unmarshal(body, &loginRes); err != nil {
			fail(t, "login unmarshal failed: %v", err)
		}
		if loginRes.AccessToken == "" || loginRes.RefreshToken == "" {
			fail(t, "expected access and refresh tokens")
		}
		state.accessToken = loginRes.AccessToken
		state.refreshToken = loginRes.RefreshToken
	})

	step("Me", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodGet, "/auth/me", state.accessToken, nil)
		if resp.StatusCode != http.StatusOK {
			fail(t, "me status: %d body: %s", resp.StatusCode, string(body))
		}
		var meRes struct {
			UserID uint64 `json:"user_id"`
		}
		if err := json.Unmarshal(body, &meRes); err != nil {
			fail(t, "me unmarshal failed: %v", err)
		}
		if meRes.UserID != state.userID {
			fail(t, "expected user id %d, got %d", state.userID, meRes.UserID)
		}
	})

	step("MeInvalidToken", func(t *testing.T) {
		resp, _ := client.doJSON(t, http.MethodGet, "/auth/me", "invalid", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			fail(t, "expected me with invalid token to fail, got %d", resp.StatusCode)
		}
	})

	step("RefreshToken", func(t *testing.T) {
		resp, body := client.postJSON(t, "/auth/refresh", map[string]string{
			"refresh_token": state.refreshToken,
		})
		if resp.StatusCode != http.StatusOK {
			fail(t, "refresh status: %d body: %s", resp.StatusCode, string(body))
		}
		var refreshRes struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		}
		if err := json.Unmarshal(body, &refreshRes); err != nil {
			fail(t, "refresh unmarshal failed: %v", err)
		}
		if refreshRes.RefreshToken == "" || refreshRes.RefreshToken == state.refreshToken {
			fail(t, "expected rotated refresh token")
		}
		state.newRefreshToken = refreshRes.RefreshToken
		state.accessToken = refreshRes.AccessToken
	})

	step("OldRefreshTokenInvalid", func(t *testing.T) {
		resp, _ := client.postJSON(t, "/auth/refresh", map[string]string{
			"refresh_token": state.refreshToken,
		})
		if resp.StatusCode != http.StatusUnauthorized {
			fail(t, "expected old refresh token invalid, got %d", resp.StatusCode)
		}
	})

	step("InvalidRefreshToken", func(t *testing.T) {
		resp, _ := client.postJSON(t, "/auth/refresh", map[string]string{
			"refresh_token": "invalid",
		})
		if resp.StatusCode != http.StatusUnauthorized {
			fail(t, "expected invalid refresh token to fail, got %d", resp.StatusCode)
		}
	})

	step("TodoCreate", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodPost, "/todos", state.accessToken, map[string]string{
			"title":   "write report",
			"content": "quarterly numbers",
		})
		if resp.StatusCode != http.StatusCreated {
			fail(t, "todo create status: %d body: %s", resp.StatusCode, string(body))
		}
		var todoRes struct {
			ID     uint64 `json:"id"`
			UserID uint64 `json:"user_id"`
		}
		if err := json.Unmarshal(body, &todoRes); err != nil {
			fail(t, "todo create unmarshal failed: %v", err)
		}
		if todoRes.ID == 0 || todoRes.UserID != state.userID {
			fail(t, "expected owned todo, got %s", string(body))
		}
		state.todoID = todoRes.ID
	})

	step("TodoMarkDone", func(t *testing.T) {
		path := fmt.Sprintf("/todos/%d", state.todoID)
		resp, body := client.doJSON(t, http.MethodPatch, path, state.accessToken, map[string]any{
			"is_done": true,
		})
		if resp.StatusCode != http.StatusOK {
			fail(t, "todo update status: %d body: %s", resp.StatusCode, string(body))
		}
		if !bytes.Contains(body, []byte(`"is_done":true`)) {
			fail(t, "expected todo marked done, got %s", string(body))
		}
	})

	step("TodoList", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodGet, "/todos", state.accessToken, nil)
		if resp.StatusCode != http.StatusOK {
			fail(t, "todo list status: %d body: %s", resp.StatusCode, string(body))
		}
		var todos []struct {
			ID uint64 `json:"id"`
		}
		if err := json.Unmarshal(body, &todos); err != nil {
			fail(t, "todo list unmarshal failed: %v", err)
		}
		if len(todos) != 1 || todos[0].ID != state.todoID {
			fail(t, "expected exactly the created todo, got %s", string(body))
		}
	})

	step("TodoDelete", func(t *testing.T) {
		path := fmt.Sprintf("/todos/%d", state.todoID)
		resp, _ := client.doJSON(t, http.MethodDelete, path, state.accessToken, nil)
		if resp.StatusCode != http.StatusNoContent {
			fail(t, "todo delete status: %d", resp.StatusCode)
		}
	})

	step("TodoGetAfterDelete", func(t *testing.T) {
		path := fmt.Sprintf("/todos/%d", state.todoID)
		resp, _ := client.doJSON(t, http.MethodGet, path, state.accessToken, nil)
		if resp.StatusCode != http.StatusNotFound {
			fail(t, "expected deleted todo to be gone, got %d", resp.StatusCode)
		}
	})

	step("Logout", func(t *testing.T) {
		resp, body := client.postJSON(t, "/auth/logout", map[string]string{
			"refresh_token": state.newRefreshToken,
		})
		if resp.StatusCode != http.StatusOK {
			fail(t, "logout status: %d body: %s", resp.StatusCode, string(body))
		}
	})

	step("LogoutTwice", func(t *testing.T) {
		resp, body := client.postJSON(t, "/auth/logout", map[string]string{
			"refresh_token": state.newRefreshToken,
		})
		if resp.StatusCode != http.StatusOK {
			fail(t, "second logout status: %d body: %s", resp.StatusCode, string(body))
		}
	})

	step("RefreshAfterLogout", func(t *testing.T) {
		resp, _ := client.postJSON(t, "/auth/refresh", map[string]string{
			"refresh_token": state.newRefreshToken,
		})
		if resp.StatusCode != http.StatusUnauthorized {
			fail(t, "expected refresh after logout to fail, got %d", resp.StatusCode)
		}
	})

	step("RevokedTokens", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodGet, "/auth/revoked-tokens", state.accessToken, nil)
		if resp.StatusCode != http.StatusOK {
			fail(t, "revoked tokens status: %d body: %s", resp.StatusCode, string(body))
		}
		var tokens []struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(body, &tokens); err != nil {
			fail(t, "revoked tokens unmarshal failed: %v", err)
		}
		if len(tokens) < 2 {
			fail(t, "expected rotation and logout entries in ledger, got %d", len(tokens))
		}
	})

	step("RequestResetUnknownUser", func(t *testing.T) {
		resp, _ := client.postJSON(t, "/auth/request-password-reset", map[string]string{
			"email": "missing-" + state.email,
		})
		if resp.StatusCode != http.StatusNotFound {
			fail(t, "expected reset request for missing user to fail, got %d", resp.StatusCode)
		}
	})

	step("RequestReset", func(t *testing.T) {
		resp, body := client.postJSON(t, "/auth/request-password-reset", map[string]string{
			"email": state.email,
		})
		if resp.StatusCode != http.StatusOK {
			fail(t, "request reset status: %d body: %s", resp.StatusCode, string(body))
		}
		state.resetCode = redisCode(t, rdb, "reset:code:"+state.email)
	})

	step("ResetPasswordMismatch", func(t *testing.T) {
		resp, _ := client.postJSON(t, "/auth/confirm-password-reset", map[string]string{
			"email":              state.email,
			"code":               state.resetCode,
			"new_password":       state.newPassword,
			"new_password_check": "Different1!",
		})
		if resp.StatusCode != http.StatusBadRequest {
			fail(t, "expected mismatched reset passwords to fail, got %d", resp.StatusCode)
		}
	})

	step("ResetWeakPassword", func(t *testing.T) {
		resp, _ := client.postJSON(t, "/auth/confirm-password-reset", map[string]string{
			"email":              state.email,
			"code":               state.resetCode,
			"new_password":       "short",
			"new_password_check": "short",
		})
		if resp.StatusCode != http.StatusBadRequest {
			fail(t, "expected weak reset password to fail, got %d", resp.StatusCode)
		}
	})

	step("ResetPassword", func(t *testing.T) {
		resp, body := client.postJSON(t, "/auth/confirm-password-reset", map[string]string{
			"email":              state.email,
			"code":               state.resetCode,
			"new_password":       state.newPassword,
			"new_password_check": state.newPassword,
		})
		if resp.StatusCode != http.StatusOK {
			fail(t, "reset password status: %d body: %s", resp.StatusCode, string(body))
		}
	})

	step("ResetPasswordUsedCode", func(t *testing.T) {
		resp, _ := client.postJSON(t, "/auth/confirm-password-reset", map[string]string{
			"email":              state.email,
			"code":               state.resetCode,
			"new_password":       state.newPassword,
			"new_password_check": state.newPassword,
		})
		if resp.StatusCode != http.StatusBadRequest {
			fail(t, "expected reset with used code to fail, got %d", resp.StatusCode)
		}
	})

	step("LoginOldPasswordFails", func(t *testing.T) {
		resp, _ := client.postJSON(t, "/auth/login", map[string]string{
			"email":    state.email,
			"password": state.password,
		})
		if resp.StatusCode != http.StatusUnauthorized {
			fail(t, "expected old password to fail, got %d", resp.StatusCode)
		}
	})

	step("LoginNewPassword", func(t *testing.T) {
		resp, body := client.postJSON(t, "/auth/login", map[string]string{
			"email":    state.email,
			"password": state.newPassword,
		})
		if resp.StatusCode != http.StatusOK {
			fail(t, "login with new password status: %d body: %s", resp.StatusCode, string(body))
		}
	})
}

func ioReadAll(resp *http.Response) ([]byte, error) {
	buf := &bytes.Buffer{}
	_, err := buf.ReadFrom(resp.Body)
	return buf.Bytes(), err
}
