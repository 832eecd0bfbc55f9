package web

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/taskhive/taskhive/model"
	"github.com/taskhive/taskhive/principal"
)

// rpcRequest is the JSON-RPC style envelope. The id is echoed back
// verbatim so clients can correlate responses.
type rpcRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

type rpcHandler func(ctx context.Context, pr principal.Context, params json.RawMessage) (any, error)

func (s *Server) rpcHandlers() map[string]rpcHandler {
	return map[string]rpcHandler{
		"create_task": s.rpcCreateTask,
		"get_task":    s.rpcGetTask,
		"list_tasks":  s.rpcListTasks,
		"update_task": s.rpcUpdateTask,
		"delete_task": s.rpcDeleteTask,
	}
}

func (s *Server) handleRPC(c *fiber.Ctx) error {
	req := new(rpcRequest)
	if err := json.Unmarshal(c.Body(), req); err != nil {
		return ErrRpcInvalidRequest
	}

	handler, ok := s.rpcHandlers()[req.Method]
	if !ok {
		return ErrRpcMethodUnknown.Clone().WithMetadata(map[string]any{
			"method": req.Method,
		})
	}

	ctx := c.UserContext()
	pr, ok := principal.FromContext(ctx)
	if !ok {
		return ErrNoAuth
	}

	result, err := handler(ctx, pr, req.Params)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"id":     req.ID,
		"result": result,
	})
}

// paramsForCreate carries the data for a create call.
type paramsForCreate[D any] struct {
	Data D `json:"data"`
}

// paramsIded addresses an entity by id.
type paramsIded struct {
	ID int64 `json:"id"`
}

// paramsForUpdate carries the id and the partial data for an update.
type paramsForUpdate[D any] struct {
	ID   int64 `json:"id"`
	Data D     `json:"data"`
}

// paramsList carries the optional filter and paging for a list call.
type paramsList struct {
	Filters     json.RawMessage    `json:"filters"`
	ListOptions *model.ListOptions `json:"list_options"`
}

func parseParams[P any](raw json.RawMessage) (P, error) {
	var params P
	if len(raw) == 0 {
		return params, ErrRpcMissingParams
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return params, ErrRpcFailJSONParams.Clone().WithMetadata(map[string]any{
			"cause": err.Error(),
		})
	}
	return params, nil
}

func (s *Server) rpcCreateTask(ctx context.Context, pr principal.Context, raw json.RawMessage) (any, error) {
	params, err := parseParams[paramsForCreate[model.TaskForCreate]](raw)
	if err != nil {
		return nil, err
	}

	id, err := s.tasks.Create(ctx, pr, params.Data)
	if err != nil {
		return nil, err
	}

	task, err := s.tasks.Get(ctx, pr, id)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Server) rpcGetTask(ctx context.Context, pr principal.Context, raw json.RawMessage) (any, error) {
	params, err := parseParams[paramsIded](raw)
	if err != nil {
		return nil, err
	}

	task, err := s.tasks.Get(ctx, pr, params.ID)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Server) rpcListTasks(ctx context.Context, pr principal.Context, raw json.RawMessage) (any, error) {
	// Both filter and paging are optional; an absent params object means
	// list everything under the default page size.
	var params paramsList
	if len(raw) > 0 {
		var err error
		params, err = parseParams[paramsList](raw)
		if err != nil {
			return nil, err
		}
	}

	filter, err := model.ParseFilter(params.Filters)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "invalid list filters").
			WithTextCode(TextCodeRpcParams).
			WithCode(errors.CodeBadRequest)
	}

	tasks, err := s.tasks.List(ctx, pr, filter, params.ListOptions)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *Server) rpcUpdateTask(ctx context.Context, pr principal.Context, raw json.RawMessage) (any, error) {
	params, err := parseParams[paramsForUpdate[model.TaskForUpdate]](raw)
	if err != nil {
		return nil, err
	}

	if err := s.tasks.Update(ctx, pr, params.ID, params.Data); err != nil {
		return nil, err
	}

	task, err := s.tasks.Get(ctx, pr, params.ID)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// rpcDeleteTask returns the entity as it was before deletion.
func (s *Server) rpcDeleteTask(ctx context.Context, pr principal.Context, raw json.RawMessage) (any, error) {
	params, err := parseParams[paramsIded](raw)
	if err != nil {
		return nil, err
	}

	task, err := s.tasks.Get(ctx, pr, params.ID)
	if err != nil {
		return nil, err
	}

	if err := s.tasks.Delete(ctx, pr, params.ID); err != nil {
		return nil, err
	}
	return task, nil
}
