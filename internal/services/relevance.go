package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/miciek335/vinted-listing-tracker/internal/entities"
	log "github.com/sirupsen/logrus"
)

type aiClient interface {
	GenerateResponse(ctx context.Context, request string) (string, error)
}

// RelevanceFilter asks a language model whether a listing matches the buyer's wish of a search.
type RelevanceFilter struct {
	aiClient aiClient
}

func NewRelevanceFilter(aiClient aiClient) *RelevanceFilter {
	return &RelevanceFilter{aiClient: aiClient}
}

func (r *RelevanceFilter) IsRelevant(ctx context.Context, search entities.SearchSpec, listing entities.Listing) (bool, error) {
	response, err := r.aiClient.GenerateResponse(ctx, r.listingMatchSearchRequest(search, listing))
	if err != nil {
		return false, err
	}

	log.Debugf("got response \"%v\" for listing %v", response, listing.URL)
	response = strings.TrimSpace(strings.ReplaceAll(strings.ToLower(response), "*", "")) // models sometimes answer **rather no**

	if hasPrefixes(response, []string{"rather yes", "yes"}) {
		return true, nil
	} else if hasPrefixes(response, []string{"rather no", "no"}) {
		return false, nil
	} else {
		return false, fmt.Errorf("unexpected response \"%v\" for listing %v", response, listing.URL)
	}
}

func (r *RelevanceFilter) listingMatchSearchRequest(search entities.SearchSpec, listing entities.Listing) (request string) {

	request = "Listing title: " + listing.Title
	request += " Search: " + search.DisplayName()
	request += " Buyer wish: " + search.Wish
	request += " You filter second-hand marketplace listings based on the buyer's wish. Does the listing match it? " +
		"Think carefully. Answer with a confidence level (ascending) using only \"no\", \"rather no\", \"rather yes\", \"yes\""
	return request
}

func hasPrefixes(str string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(str, prefix) {
			return true
		}
	}
	return false
}
