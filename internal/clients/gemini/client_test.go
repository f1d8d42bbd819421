package gemini

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"google.golang.org/api/googleapi"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	args := m.Called(ctx, parts)
	resp, _ := args.Get(0).(*genai.GenerateContentResponse)
	return resp, args.Error(1)
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{}
	for _, p := range parts {
		content.Parts = append(content.Parts, genai.Text(p))
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func Test_GenerateResponse_ShouldJoinAndTrimText(t *testing.T) {
	model := &mockGenerator{}
	model.On("GenerateContent", mock.Anything, mock.Anything).Return(textResponse("rather ", "yes\n"), nil)

	client := &Client{model: model}
	resp, err := client.GenerateResponse(context.Background(), "is it relevant?")

	assert.NoError(t, err)
	assert.Equal(t, "rather yes", resp)
}

func Test_GenerateResponse_WhenServiceUnavailable_ShouldRetryThreeTimes(t *testing.T) {
	model := &mockGenerator{}
	model.On("GenerateContent", mock.Anything, mock.Anything).
		Return(nil, &googleapi.Error{Code: http.StatusServiceUnavailable, Message: "overloaded"})

	client := &Client{model: model}
	_, err := client.GenerateResponse(context.Background(), "is it relevant?")

	assert.Error(t, err)
	model.AssertNumberOfCalls(t, "GenerateContent", 3)
}

func Test_GenerateResponse_WhenUntypedInternalError_ShouldRetry(t *testing.T) {
	model := &mockGenerator{}
	model.On("GenerateContent", mock.Anything, mock.Anything).Return(nil, errors.New("googleapi: Error 500: internal")).Once()
	model.On("GenerateContent", mock.Anything, mock.Anything).Return(textResponse("no"), nil).Once()

	client := &Client{model: model}
	resp, err := client.GenerateResponse(context.Background(), "is it relevant?")

	assert.NoError(t, err)
	assert.Equal(t, "no", resp)
	model.AssertNumberOfCalls(t, "GenerateContent", 2)
}

func Test_GenerateResponse_WhenForbidden_ShouldNotRetry(t *testing.T) {
	model := &mockGenerator{}
	model.On("GenerateContent", mock.Anything, mock.Anything).
		Return(nil, &googleapi.Error{Code: http.StatusForbidden, Message: "forbidden"})

	client := &Client{model: model}
	_, err := client.GenerateResponse(context.Background(), "is it relevant?")

	assert.Error(t, err)
	model.AssertNumberOfCalls(t, "GenerateContent", 1)
}

func Test_GenerateResponse_WhenNoCandidates_ShouldFail(t *testing.T) {
	model := &mockGenerator{}
	model.On("GenerateContent", mock.Anything, mock.Anything).Return(&genai.GenerateContentResponse{}, nil)

	client := &Client{model: model}
	_, err := client.GenerateResponse(context.Background(), "is it relevant?")

	assert.ErrorIs(t, err, errEmptyResponse)
}

func Test_GenerateResponse_WhenOnlyNonTextParts_ShouldFail(t *testing.T) {
	model := &mockGenerator{}
	model.On("GenerateContent", mock.Anything, mock.Anything).Return(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png"}}}}},
	}, nil)

	client := &Client{model: model}
	_, err := client.GenerateResponse(context.Background(), "is it relevant?")

	assert.ErrorIs(t, err, errEmptyResponse)
}
