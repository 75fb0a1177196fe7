// Package storage mirrors committed board and task state into Azure table
// storage and feeds activity entries to the notification queue. The
// in-process stores stay authoritative; tables are the durable read model
// consumed by reporting services.
package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"taskboard-api/domain"
)

// Storage provides access to the underlying persistence mechanisms.
type Storage struct {
	boardTable    *aztables.Client
	taskTable     *aztables.Client
	activityQueue *azqueue.QueueClient
}

// New creates a Storage instance from the given connection string.
func New(connStr, boardsTable, tasksTable, activityQueue string) (*Storage, error) {
	tablesClientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &tablesClientOptions)
	if err != nil {
		return nil, err
	}
	bt := svc.NewClient(boardsTable)
	tt := svc.NewClient(tasksTable)
	queueClientOptions := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	aq, err := azqueue.NewQueueClientFromConnectionString(connStr, activityQueue, &queueClientOptions)
	if err != nil {
		return nil, err
	}
	return &Storage{boardTable: bt, taskTable: tt, activityQueue: aq}, nil
}

// boardEntity keeps a few queryable scalar columns next to the full aggregate
// document.
type boardEntity struct {
	aztables.Entity
	Name       string `json:"Name"`
	Visibility string `json:"Visibility"`
	Document   string `json:"Document"`
}

type taskEntity struct {
	aztables.Entity
	Title    string `json:"Title"`
	Status   string `json:"Status"`
	ColumnID string `json:"ColumnID"`
	Position int    `json:"Position"`
	Archived bool   `json:"Archived"`
	Document string `json:"Document"`
}

// SaveBoard upserts the board, partitioned by its owner.
func (s *Storage) SaveBoard(ctx context.Context, b *domain.Board) error {
	doc, err := json.Marshal(b)
	if err != nil {
		return err
	}
	ent := boardEntity{
		Entity:     aztables.Entity{PartitionKey: b.CreatedBy, RowKey: b.ID},
		Name:       b.Name,
		Visibility: string(b.Visibility),
		Document:   string(doc),
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = s.boardTable.UpsertEntity(ctx, payload, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	return err
}

// SaveTask upserts the full task aggregate, partitioned by board.
func (s *Storage) SaveTask(ctx context.Context, t *domain.Task) error {
	doc, err := json.Marshal(t)
	if err != nil {
		return err
	}
	ent := taskEntity{
		Entity:   aztables.Entity{PartitionKey: t.BoardID, RowKey: t.ID},
		Title:    t.Title,
		Status:   string(t.Status),
		ColumnID: t.ColumnID,
		Position: t.Position,
		Archived: t.IsArchived,
		Document: string(doc),
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = s.taskTable.UpsertEntity(ctx, payload, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	return err
}

// PublishActivity sends the envelope to the activity queue for the external
// notification pipeline.
func (s *Storage) PublishActivity(ctx context.Context, env domain.ActivityEnvelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	_, err = s.activityQueue.EnqueueMessage(ctx, string(data), nil)
	return err
}
