package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/reviewd/internal/domain"
)

type ListHistoryInput struct {
	UserID   string `path:"userID" doc:"User id"`
	RepoName string `path:"repoName" doc:"Repository short name"`
	Limit    int    `query:"limit" default:"10" minimum:"1" maximum:"100" doc:"Max entries"`
}

type ListHistoryOutput struct {
	Body struct {
		History []*domain.ReviewRecord `json:"history"`
	}
}

type DeleteHistoryInput struct {
	UserID     string `path:"userID" doc:"User id"`
	RepoName   string `path:"repoName" doc:"Repository short name"`
	CommitHash string `path:"commitHash" doc:"Reviewed commit hash"`
}

type DeleteHistoryOutput struct {
	Body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
}

func RegisterHistoryRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "list-history",
		Method:      http.MethodGet,
		Path:        "/history/{userID}/{repoName}",
		Summary:     "List review history for a repository, newest first",
		Tags:        []string{"History"},
	}, func(ctx context.Context, input *ListHistoryInput) (*ListHistoryOutput, error) {
		records, err := store.History().ListByRepo(ctx, input.UserID, input.RepoName, input.Limit)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to fetch review history", err)
		}

		if records == nil {
			records = []*domain.ReviewRecord{}
		}

		out := &ListHistoryOutput{}
		out.Body.History = records
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-history",
		Method:      http.MethodDelete,
		Path:        "/history/{userID}/{repoName}/{commitHash}",
		Summary:     "Delete one review history entry",
		Tags:        []string{"History"},
	}, func(ctx context.Context, input *DeleteHistoryInput) (*DeleteHistoryOutput, error) {
		err := store.History().Delete(ctx, input.UserID, input.RepoName, input.CommitHash)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, huma.Error404NotFound("review history not found")
		}
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to delete review history", err)
		}

		out := &DeleteHistoryOutput{}
		out.Body.Success = true
		out.Body.Message = "Review history deleted"
		return out, nil
	})
}
