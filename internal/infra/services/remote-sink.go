package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"survey-bot/internal/domain/entities"
	"survey-bot/internal/util"
)

// RemoteSink posts each completed survey as a form to an HTTP endpoint that
// stores it in the respostas_bot table.
type RemoteSink struct {
	URL        string
	Keys       []string
	HttpClient *http.Client
}

func NewRemoteSink(endpoint string, keys []string, httpClient *http.Client) *RemoteSink {
	return &RemoteSink{URL: endpoint, Keys: keys, HttpClient: httpClient}
}

func (s *RemoteSink) Name() string {
	return "remote"
}

func (s *RemoteSink) Record(ctx context.Context, survey entities.CompletedSurvey) error {
	form := url.Values{}
	form.Set("nome", util.CapitalizeName(survey.Name))
	form.Set("telefone", util.FormatPhoneDisplay(survey.ContactID))
	for _, key := range s.Keys {
		form.Set(key, util.UpperAnswers(survey.AnswerFor(key)))
	}
	form.Set("datahora", util.FormatDateTimeBR(survey.CompletedAt))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := s.HttpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return fmt.Errorf("unexpected HTTP status: %s, response: %s", res.Status, string(body))
	}
	return nil
}
