package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"jobfill/models"
)

// ClassifyPath is the classifier API route.
const ClassifyPath = "/api/autofill/classify"

// Classifier is what the engine needs from a field classifier: one batch in,
// one outcome out.
type Classifier interface {
	Classify(ctx context.Context, req models.ClassificationRequest) (ClassificationOutcome, error)
}

// ClassifierClient calls a remote classifier over HTTP. The bearer token
// identifies the candidate whose profile the server loads.
type ClassifierClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewClassifierClient(baseURL, token string) *ClassifierClient {
	return &ClassifierClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: 90 * time.Second},
	}
}

// errorBody is the server's error envelope.
type errorBody struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
	Body   string `json:"body"`
}

func (c *ClassifierClient) Classify(ctx context.Context, req models.ClassificationRequest) (ClassificationOutcome, error) {
	if len(req.Fields) == 0 {
		return nil, ErrEmptyFieldBatch
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode classification request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+ClassifyPath, bytes.NewReader(payload))
	if err != nil {
		return nil, &RequestError{Message: "invalid classifier url", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return upstreamFailure(NewUpstreamError("classifier", 0, err.Error(), err)), nil
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return upstreamFailure(NewUpstreamError("classifier", resp.StatusCode, err.Error(), err)), nil
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var out models.ClassificationResponse
		if err := json.Unmarshal(body, &out); err != nil {
			return ClassificationParseFailure{Raw: string(body), Err: err}, nil
		}
		if out.ParseFailure {
			return ClassificationParseFailure{Raw: string(body), Err: fmt.Errorf("classifier could not parse model output"), Fallback: out.Fields, ResumeUsed: out.ResumeUsed}, nil
		}
		return ClassificationOK{Fields: out.Fields, ResumeUsed: out.ResumeUsed}, nil

	case resp.StatusCode == http.StatusBadRequest:
		var eb errorBody
		_ = json.Unmarshal(body, &eb)
		return nil, &RequestError{Message: firstNonEmpty(eb.Error, string(body))}

	case resp.StatusCode == http.StatusBadGateway:
		var eb errorBody
		if err := json.Unmarshal(body, &eb); err == nil && (eb.Status != 0 || eb.Body != "") {
			return ClassificationUpstreamFailure{Provider: "llm", Status: eb.Status, Body: truncateBody(eb.Body)}, nil
		}
		return upstreamFailure(NewUpstreamError("classifier", resp.StatusCode, string(body), nil)), nil
	}
	return upstreamFailure(NewUpstreamError("classifier", resp.StatusCode, string(body), nil)), nil
}

// BoundClassifier runs the classifier in-process for a fixed profile.
type BoundClassifier struct {
	Service *FieldClassifier
	Profile *models.CandidateProfile
}

func (b BoundClassifier) Classify(ctx context.Context, req models.ClassificationRequest) (ClassificationOutcome, error) {
	return b.Service.Classify(ctx, b.Profile, req)
}
