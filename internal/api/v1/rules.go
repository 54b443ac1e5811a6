package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/reviewd/internal/domain"
)

type GetRulesInput struct {
	UserID   string `path:"userID" doc:"User id"`
	RepoName string `path:"repoName" doc:"Repository short name"`
}

type GetRulesOutput struct {
	Body struct {
		Rules []string `json:"rules"`
	}
}

type SaveRulesInput struct {
	Body struct {
		UserID   string   `json:"user_id" minLength:"1" doc:"User id"`
		RepoName string   `json:"repo_name" minLength:"1" doc:"Repository short name"`
		Rules    []string `json:"rules" required:"false" doc:"Full replacement rule list"`
	}
}

type SaveRulesOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

func RegisterRuleRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "get-rules",
		Method:      http.MethodGet,
		Path:        "/rules/{userID}/{repoName}",
		Summary:     "Load the custom rule list for a user and repository",
		Tags:        []string{"Rules"},
	}, func(ctx context.Context, input *GetRulesInput) (*GetRulesOutput, error) {
		out := &GetRulesOutput{}
		out.Body.Rules = []string{}

		rs, err := store.Rules().Get(ctx, input.UserID, input.RepoName)
		if errors.Is(err, domain.ErrNotFound) {
			return out, nil
		}
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to load rules", err)
		}

		out.Body.Rules = rs.Rules
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "save-rules",
		Method:      http.MethodPost,
		Path:        "/rules",
		Summary:     "Replace the custom rule list for a user and repository",
		Tags:        []string{"Rules"},
	}, func(ctx context.Context, input *SaveRulesInput) (*SaveRulesOutput, error) {
		rules := input.Body.Rules
		if rules == nil {
			rules = []string{}
		}

		err := store.Rules().Put(ctx, &domain.RuleSet{
			UserID:   input.Body.UserID,
			RepoName: input.Body.RepoName,
			Rules:    rules,
		})
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to save rules", err)
		}

		log.Info().
			Str("user_id", input.Body.UserID).
			Str("repo_name", input.Body.RepoName).
			Int("count", len(rules)).
			Msg("rules saved")

		out := &SaveRulesOutput{}
		out.Body.Status = "saved"
		return out, nil
	})
}
