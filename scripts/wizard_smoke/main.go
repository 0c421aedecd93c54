// Command wizard_smoke drives a full enrollment wizard session against a
// running instance and reports each step. Intended for post-deploy checks.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

type step struct {
	Name   string
	Method string
	Path   string
	Body   interface{}
	Expect int
}

type result struct {
	Step     step
	Status   int
	Duration time.Duration
	Error    error
}

type envelope struct {
	Data json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type stateData struct {
	SessionID   string `json:"session_id"`
	CurrentStep int    `json:"current_step"`
	CanProceed  bool   `json:"can_proceed"`
}

func main() {
	var (
		base      string
		token     string
		clubID    string
		studentID string
		timeout   time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080/api/v1", "API base URL")
	flag.StringVar(&token, "token", "", "Bearer token with SECRETARY or ADMIN role")
	flag.StringVar(&clubID, "club", "", "Club ID to enroll into")
	flag.StringVar(&studentID, "student", "", "Student ID to enroll")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	if token == "" || clubID == "" || studentID == "" {
		log.Fatal("usage: wizard_smoke -token <jwt> -club <id> -student <id>")
	}

	client := &http.Client{Timeout: timeout}

	sessionID, err := startSession(client, base, token)
	if err != nil {
		log.Fatalf("failed to start wizard session: %v", err)
	}
	prefix := "/enrollments/wizard/" + sessionID

	steps := []step{
		{Name: "select club", Method: http.MethodPut, Path: prefix + "/club", Body: map[string]string{"club_id": clubID}, Expect: http.StatusOK},
		{Name: "advance to student", Method: http.MethodPost, Path: prefix + "/next", Expect: http.StatusOK},
		{Name: "list eligible students", Method: http.MethodGet, Path: prefix + "/students", Expect: http.StatusOK},
		{Name: "select student", Method: http.MethodPut, Path: prefix + "/student", Body: map[string]string{"student_id": studentID}, Expect: http.StatusOK},
		{Name: "advance to payment", Method: http.MethodPost, Path: prefix + "/next", Expect: http.StatusOK},
		{Name: "proration preview", Method: http.MethodGet, Path: prefix + "/proration", Expect: http.StatusOK},
		{Name: "abandon session", Method: http.MethodPost, Path: prefix + "/reset", Expect: http.StatusOK},
	}

	var failures int
	results := make([]result, 0, len(steps))
	for _, s := range steps {
		res := runStep(client, base, token, s)
		if res.Error != nil || res.Status != s.Expect {
			failures++
		}
		results = append(results, res)
	}

	printReport(sessionID, results)
	if failures > 0 {
		fmt.Printf("Failed steps: %d\n", failures)
		os.Exit(1)
	}
	fmt.Println("All steps passed")
}

func startSession(client *http.Client, base, token string) (string, error) {
	body, status, err := perform(client, base, token, http.MethodPost, "/enrollments/wizard", nil)
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated {
		return "", fmt.Errorf("unexpected status %d: %s", status, strings.TrimSpace(string(body)))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", err
	}
	var state stateData
	if err := json.Unmarshal(env.Data, &state); err != nil {
		return "", err
	}
	if state.SessionID == "" {
		return "", fmt.Errorf("no session id in response")
	}
	return state.SessionID, nil
}

func runStep(client *http.Client, base, token string, s step) result {
	res := result{Step: s}
	start := time.Now()
	body, status, err := perform(client, base, token, s.Method, s.Path, s.Body)
	res.Duration = time.Since(start)
	res.Status = status
	if err != nil {
		res.Error = err
		return res
	}
	if status != s.Expect {
		var env envelope
		if json.Unmarshal(body, &env) == nil && env.Error != nil {
			res.Error = fmt.Errorf("%s: %s", env.Error.Code, env.Error.Message)
		}
	}
	return res
}

func perform(client *http.Client, base, token, method, path string, payload interface{}) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, err
		}
		reqBody = bytes.NewReader(raw)
	}

	url := strings.TrimRight(base, "/") + path
	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func printReport(sessionID string, results []result) {
	fmt.Println("Wizard Smoke Report")
	fmt.Println("===================")
	fmt.Printf("Session: %s\n", sessionID)
	for _, res := range results {
		status := "OK"
		if res.Error != nil || res.Status != res.Step.Expect {
			status = "FAIL"
		}
		fmt.Printf("[%s] %s (%s %s)\n", status, res.Step.Name, res.Step.Method, res.Step.Path)
		fmt.Printf("  Status: %d (want %d) in %s\n", res.Status, res.Step.Expect, res.Duration)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
		}
	}
}
