package services

import (
	"context"
	"testing"

	"github.com/miciek335/vinted-listing-tracker/internal/entities"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockAiClient struct {
	mock.Mock
}

func (m *mockAiClient) GenerateResponse(ctx context.Context, request string) (string, error) {
	args := m.Called(ctx, request)
	return args.String(0), args.Error(1)
}

func Test_RelevanceFilter_ShouldParseConfidence(t *testing.T) {
	search := entities.SearchSpec{Name: "Sneakers", Wish: "white leather, size 42"}
	listing := listings("A")[0]

	tests := []struct {
		response string
		expected bool
	}{
		{"yes", true},
		{"Rather yes.", true},
		{"**rather no**", false},
		{"No", false},
		{"  yes, it matches", true},
	}

	for _, tt := range tests {
		t.Run(tt.response, func(t *testing.T) {
			client := &mockAiClient{}
			client.On("GenerateResponse", mock.Anything, mock.Anything).Return(tt.response, nil)

			relevant, err := NewRelevanceFilter(client).IsRelevant(context.Background(), search, listing)

			assert.NoError(t, err)
			assert.Equal(t, tt.expected, relevant)
		})
	}
}

func Test_RelevanceFilter_WhenResponseUnexpected_ShouldFail(t *testing.T) {
	client := &mockAiClient{}
	client.On("GenerateResponse", mock.Anything, mock.Anything).Return("maybe", nil)

	_, err := NewRelevanceFilter(client).IsRelevant(context.Background(), entities.SearchSpec{Wish: "x"}, listings("A")[0])

	assert.Error(t, err)
}

func Test_RelevanceFilter_WhenClientFails_ShouldReturnError(t *testing.T) {
	client := &mockAiClient{}
	client.On("GenerateResponse", mock.Anything, mock.Anything).Return("", errors.New("Error 500"))

	_, err := NewRelevanceFilter(client).IsRelevant(context.Background(), entities.SearchSpec{Wish: "x"}, listings("A")[0])

	assert.Error(t, err)
}

func Test_RelevanceFilter_RequestMentionsTitleAndWish(t *testing.T) {
	client := &mockAiClient{}
	client.On("GenerateResponse", mock.Anything, mock.MatchedBy(func(request string) bool {
		return assert.Contains(t, request, "Item A") && assert.Contains(t, request, "size 42")
	})).Return("yes", nil)

	_, err := NewRelevanceFilter(client).IsRelevant(context.Background(),
		entities.SearchSpec{Name: "Sneakers", Wish: "size 42"}, listings("A")[0])

	assert.NoError(t, err)
	client.AssertExpectations(t)
}
