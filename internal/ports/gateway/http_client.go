package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"visitor.kiosk/internal/core/model"
)

// Error codes carried in the visitor-log service's response envelope.
// Anything else non-zero is treated as a plain service error.
const (
	codeOK                = 0
	codeDeptAlreadyClosed = 102
)

// envelope is the {errorCode, message} body the service wraps mutation
// responses in.
type envelope struct {
	ErrorCode int    `json:"errorCode"`
	Message   string `json:"message"`
}

// HTTPGateway talks to the visitor-log service over HTTP. A circuit breaker
// guards every request so a struggling service fails fast instead of tying up
// the kiosk; the breaker never retries on the caller's behalf.
type HTTPGateway struct {
	client     *http.Client
	baseURL    string
	operatorID int64
	cb         *gobreaker.CircuitBreaker
}

// NewHTTPGateway builds a gateway for the service at baseURL. operatorID is
// the kiosk's user id, recorded on every mutation (userLogInId and friends).
func NewHTTPGateway(baseURL string, operatorID int64, timeout time.Duration) *HTTPGateway {
	settings := gobreaker.Settings{
		Name:        "Visitor-Log-API",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip if failure rate exceeds 50% after at least 10 requests
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
	}

	return &HTTPGateway{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL:    baseURL,
		operatorID: operatorID,
		cb:         gobreaker.NewCircuitBreaker(settings),
	}
}

// officeLogDTO mirrors the office-log record on the wire; timestamps travel
// as strLogIn-style strings.
type officeLogDTO struct {
	ID          int64  `json:"id"`
	StrID       string `json:"strId"`
	LogIn       string `json:"logIn"`
	StrLogIn    string `json:"strLogIn"`
	LogDate     string `json:"logDate"`
	LogOut      string `json:"logOut"`
	VisitorID   int64  `json:"visitorId"`
	OfficeID    int64  `json:"officeId"`
	ServiceID   int64  `json:"serviceId"`
	SpecService string `json:"specService"`
	Returned    bool   `json:"returned"`
}

type departmentLogDTO struct {
	ID           int64  `json:"id"`
	StrID        string `json:"strId"`
	DeptLogIn    string `json:"deptLogIn"`
	StrDeptLogIn string `json:"strDeptLogIn"`
	DeptLogOut   string `json:"deptLogOut"`
	DeptID       int64  `json:"deptId"`
	Reason       string `json:"reason"`
}

// FetchOfficeLog returns the visitor's same-day office log, or (nil, nil)
// when the ticket has never signed in.
func (g *HTTPGateway) FetchOfficeLog(ctx context.Context, ticketID string) (*model.OfficeLog, error) {
	var dto officeLogDTO
	found, err := g.get(ctx, "/office-logs/today/"+url.PathEscape(ticketID), &dto)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch office log: %w", err)
	}
	if !found {
		return nil, nil
	}

	logIn, err := parseWireTime(dto.LogIn)
	if err != nil {
		return nil, fmt.Errorf("office log has malformed logIn %q: %w", dto.LogIn, err)
	}
	logOut, err := parseWireTimePtr(dto.LogOut)
	if err != nil {
		return nil, fmt.Errorf("office log has malformed logOut %q: %w", dto.LogOut, err)
	}

	return &model.OfficeLog{
		ID:          dto.ID,
		StrID:       dto.StrID,
		LogIn:       logIn,
		StrLogIn:    dto.StrLogIn,
		LogDate:     dto.LogDate,
		LogOut:      logOut,
		VisitorID:   dto.VisitorID,
		OfficeID:    dto.OfficeID,
		ServiceID:   dto.ServiceID,
		SpecService: dto.SpecService,
		Returned:    dto.Returned,
	}, nil
}

// FetchDepartmentLog returns the visitor's same-day department log, or
// (nil, nil) when none exists.
func (g *HTTPGateway) FetchDepartmentLog(ctx context.Context, ticketID string) (*model.DepartmentLog, error) {
	var dto departmentLogDTO
	found, err := g.get(ctx, "/department-logs/today/"+url.PathEscape(ticketID), &dto)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch department log: %w", err)
	}
	if !found {
		return nil, nil
	}

	deptLogIn, err := parseWireTime(dto.DeptLogIn)
	if err != nil {
		return nil, fmt.Errorf("department log has malformed deptLogIn %q: %w", dto.DeptLogIn, err)
	}
	deptLogOut, err := parseWireTimePtr(dto.DeptLogOut)
	if err != nil {
		return nil, fmt.Errorf("department log has malformed deptLogOut %q: %w", dto.DeptLogOut, err)
	}

	return &model.DepartmentLog{
		ID:           dto.ID,
		StrID:        dto.StrID,
		DeptLogIn:    deptLogIn,
		StrDeptLogIn: dto.StrDeptLogIn,
		DeptLogOut:   deptLogOut,
		DeptID:       dto.DeptID,
		Reason:       dto.Reason,
	}, nil
}

// FetchImagePair checks which visitor images exist for a filename token.
func (g *HTTPGateway) FetchImagePair(ctx context.Context, token string) (model.ImagePair, error) {
	var pair model.ImagePair
	found, err := g.get(ctx, "/visitor-images/"+url.PathEscape(token), &pair)
	if err != nil {
		return model.ImagePair{}, fmt.Errorf("failed to fetch image pair: %w", err)
	}
	if !found {
		return model.ImagePair{}, nil
	}
	return pair, nil
}

// CreateDepartmentLog opens a department visit under the given office log.
func (g *HTTPGateway) CreateDepartmentLog(ctx context.Context, officeLog *model.OfficeLog, deptID int64, reason string, loginAt time.Time) error {
	body := map[string]any{
		"log": map[string]any{
			"id":              officeLog.ID,
			"strId":           officeLog.StrID,
			"logIn":           formatWireTime(officeLog.LogIn),
			"deptLogIn":       formatWireTime(loginAt),
			"visitorId":       officeLog.VisitorID,
			"deptId":          deptID,
			"reason":          reason,
			"userDeptLogInId": g.operatorID,
		},
	}

	env, err := g.send(ctx, http.MethodPost, "/department-logs", body)
	if err != nil {
		return fmt.Errorf("failed to create department log: %w", err)
	}
	if env.ErrorCode != codeOK {
		return fmt.Errorf("create department log rejected: %s", env.Message)
	}
	return nil
}

// CloseDepartmentLog closes a department visit addressed by its composite
// key. The service's "already closed" error code maps to
// model.ErrAlreadyClosed so callers can treat it as recoverable.
func (g *HTTPGateway) CloseDepartmentLog(ctx context.Context, strID, strDeptLogIn string, closeAt time.Time) error {
	path := fmt.Sprintf("/department-logs/%s/%s/close", url.PathEscape(strID), url.PathEscape(strDeptLogIn))
	body := map[string]any{
		"deptLogOut":       formatWireTime(closeAt),
		"userDeptLogOutId": g.operatorID,
	}

	env, err := g.send(ctx, http.MethodPut, path, body)
	if err != nil {
		return fmt.Errorf("failed to close department log: %w", err)
	}
	if env.ErrorCode == codeDeptAlreadyClosed {
		return model.ErrAlreadyClosed
	}
	if env.ErrorCode != codeOK {
		return fmt.Errorf("close department log rejected: %s", env.Message)
	}
	return nil
}

// CloseOfficeLog closes an office visit. markReturned distinguishes a
// transfer-initiated close from a manual sign-out; downstream reporting
// depends on the distinction.
func (g *HTTPGateway) CloseOfficeLog(ctx context.Context, strID, strLogIn string, closeAt time.Time, markReturned bool) error {
	path := fmt.Sprintf("/office-logs/%s/%s/close", url.PathEscape(strID), url.PathEscape(strLogIn))
	body := map[string]any{
		"logOut":       formatWireTime(closeAt),
		"returned":     markReturned,
		"userLogOutId": g.operatorID,
	}

	env, err := g.send(ctx, http.MethodPut, path, body)
	if err != nil {
		return fmt.Errorf("failed to close office log: %w", err)
	}
	if env.ErrorCode != codeOK {
		return fmt.Errorf("close office log rejected: %s", env.Message)
	}
	return nil
}

// SignOutOfficeLog closes an office visit through the dedicated sign-out
// operation, which tags the closure as system-initiated (sysLogOut).
func (g *HTTPGateway) SignOutOfficeLog(ctx context.Context, strID, strLogIn string, closeAt time.Time) error {
	path := fmt.Sprintf("/office-logs/%s/%s/sign-out", url.PathEscape(strID), url.PathEscape(strLogIn))
	body := map[string]any{
		"logOut":       formatWireTime(closeAt),
		"sysLogOut":    true,
		"userLogOutId": g.operatorID,
	}

	env, err := g.send(ctx, http.MethodPut, path, body)
	if err != nil {
		return fmt.Errorf("failed to sign out office log: %w", err)
	}
	if env.ErrorCode != codeOK {
		return fmt.Errorf("sign out office log rejected: %s", env.Message)
	}
	return nil
}

// OpenOfficeLog creates a new office log for the visitor under newOfficeID,
// carrying forward identity fields from the previous log.
func (g *HTTPGateway) OpenOfficeLog(ctx context.Context, prev *model.OfficeLog, newOfficeID int64, loginAt time.Time) error {
	body := map[string]any{
		"id":          prev.ID,
		"strId":       prev.StrID,
		"logIn":       formatWireTime(loginAt),
		"logInDate":   loginAt.Format("2006-01-02"),
		"visitorId":   prev.VisitorID,
		"officeId":    newOfficeID,
		"serviceId":   prev.ServiceID,
		"specService": prev.SpecService,
		"returned":    false,
		"userLogInId": g.operatorID,
	}

	env, err := g.send(ctx, http.MethodPost, "/office-logs", body)
	if err != nil {
		return fmt.Errorf("failed to open office log: %w", err)
	}
	if env.ErrorCode != codeOK {
		return fmt.Errorf("open office log rejected: %s", env.Message)
	}
	return nil
}

// DuplicateImage copies a stored photo under a new filename.
func (g *HTTPGateway) DuplicateImage(ctx context.Context, oldName, newName string) error {
	body := map[string]any{
		"filename":    oldName,
		"newFilename": newName,
	}

	env, err := g.send(ctx, http.MethodPost, "/visitor-images/duplicate", body)
	if err != nil {
		return fmt.Errorf("failed to duplicate image: %w", err)
	}
	if env.ErrorCode != codeOK {
		return fmt.Errorf("duplicate image rejected: %s", env.Message)
	}
	return nil
}

// get issues a GET and decodes the body into out. Returns found=false on a
// 404 so callers can distinguish "no record" from a transport failure.
func (g *HTTPGateway) get(ctx context.Context, path string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode >= 300 {
		return false, fmt.Errorf("visitor-log service returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}
	return true, nil
}

// send issues a mutation with a JSON body and decodes the response envelope.
func (g *HTTPGateway) send(ctx context.Context, method, path string, body any) (envelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return envelope{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, bytes.NewBuffer(payload))
	if err != nil {
		return envelope{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.do(req)
	if err != nil {
		return envelope{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return envelope{}, fmt.Errorf("visitor-log service returned status %d", resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return envelope{}, fmt.Errorf("failed to decode response envelope: %w", err)
	}
	return env, nil
}

// do runs the request through the circuit breaker.
func (g *HTTPGateway) do(req *http.Request) (*http.Response, error) {
	result, err := g.cb.Execute(func() (interface{}, error) {
		return g.client.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call visitor-log service: %w", err)
	}
	return result.(*http.Response), nil
}

func formatWireTime(t time.Time) string {
	return t.Format(model.WireTimeLayout)
}

func parseWireTime(s string) (time.Time, error) {
	return time.Parse(model.WireTimeLayout, s)
}

// parseWireTimePtr treats an empty string as "still open".
func parseWireTimePtr(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(model.WireTimeLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
