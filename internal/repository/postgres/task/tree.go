package task

import (
	"context"

	"github.com/pkg/errors"
)

const (
	defaultTreeDepth = 3
	maxTreeDepth     = 10
	defaultTreeLimit = 20
)

// GetLayeredTree walks a subtree iteratively, breadth first, bounded by
// MaxDepth and a per-layer limit so a deep or wide tree never gets fully
// materialized. Truncated branches are replaced by placeholder nodes when
// IncludePlaceholders is set.
func (r Repository) GetLayeredTree(ctx context.Context, request GetLayeredTreeRequest) (*TreeNode, error) {
	if request.MaxDepth <= 0 {
		request.MaxDepth = defaultTreeDepth
	}
	if request.MaxDepth > maxTreeDepth {
		request.MaxDepth = maxTreeDepth
	}
	if request.Limit <= 0 {
		request.Limit = defaultTreeLimit
	}

	rootTask, err := r.GetById(ctx, request.RootID)
	if err != nil {
		return nil, err
	}

	root := &TreeNode{
		ID:         rootTask.ID,
		ParentID:   rootTask.ParentID,
		Name:       rootTask.Name,
		Type:       rootTask.Type,
		Status:     string(rootTask.Status),
		Progress:   rootTask.Progress,
		RetryCount: rootTask.RetryCount,
		CreatedAt:  &rootTask.CreatedAt,
	}

	// Queue-based traversal instead of recursion: each entry is a node whose
	// children still need fetching.
	queue := []*TreeNode{root}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		if node.Depth >= request.MaxDepth {
			if request.IncludePlaceholders {
				hidden, err := r.countChildren(ctx, node.ID, request.Status)
				if err != nil {
					return nil, err
				}
				if hidden > 0 {
					node.Children = append(node.Children, &TreeNode{
						ParentID:    &node.ID,
						Name:        "…",
						Status:      "truncated",
						Depth:       node.Depth + 1,
						Placeholder: true,
						HiddenCount: hidden,
					})
				}
			}
			continue
		}

		page := 1
		children, total, err := r.GetChildren(ctx, GetChildrenRequest{
			ID:     node.ID,
			Page:   &page,
			Limit:  &request.Limit,
			Status: request.Status,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "fetching children of task %d", node.ID)
		}

		for i := range children {
			child := &TreeNode{
				ID:         children[i].ID,
				ParentID:   children[i].ParentID,
				Name:       children[i].Name,
				Type:       children[i].Type,
				Status:     children[i].Status,
				Progress:   children[i].Progress,
				RetryCount: children[i].RetryCount,
				Depth:      node.Depth + 1,
				CreatedAt:  &children[i].CreatedAt,
			}
			node.Children = append(node.Children, child)
			queue = append(queue, child)
		}

		if request.IncludePlaceholders && total > len(children) {
			node.Children = append(node.Children, &TreeNode{
				ParentID:    &node.ID,
				Name:        "…",
				Status:      "truncated",
				Depth:       node.Depth + 1,
				Placeholder: true,
				HiddenCount: total - len(children),
			})
		}
	}

	return root, nil
}

func (r Repository) countChildren(ctx context.Context, id int, status *string) (int, error) {
	query := `SELECT count(id) FROM tasks WHERE parent_id = $1`
	args := []interface{}{id}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}

	count := 0
	err := r.QueryRowContext(ctx, query, args...).Scan(&count)

	return count, errors.Wrap(err, "counting children")
}
