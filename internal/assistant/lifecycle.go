package assistant

import (
	"context"
	"fmt"
	"os"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"

	"github.com/pickatale/bookrec/internal/prompts"
)

const (
	assistantName   = "Book Recommender"
	vectorStoreName = "Library Vector Store"
)

// Provision creates the retrieval index from the exported catalog file,
// uploads the catalog into it, and creates the assistant bound to that
// index and to the recommend_books tool. Returns the assistant ID.
func (c *Client) Provision(ctx context.Context, catalogPath string) (string, error) {
	store, err := c.api.VectorStores.New(ctx, openai.VectorStoreNewParams{
		Name: openai.String(vectorStoreName),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create vector store: %w", err)
	}
	c.logger.Info("created vector store", "vector_store_id", store.ID)

	f, err := os.Open(catalogPath)
	if err != nil {
		return "", fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer f.Close()

	uploaded, err := c.api.Files.New(ctx, openai.FileNewParams{
		File:    f,
		Purpose: openai.FilePurposeAssistants,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload catalog file: %w", err)
	}
	c.logger.Info("uploaded catalog file", "file_id", uploaded.ID)

	if _, err := c.api.VectorStores.Files.New(ctx, store.ID, openai.VectorStoreFileNewParams{
		FileID: uploaded.ID,
	}); err != nil {
		return "", fmt.Errorf("failed to attach catalog file to vector store %s: %w", store.ID, err)
	}

	asst, err := c.api.Beta.Assistants.New(ctx, openai.BetaAssistantNewParams{
		Name:         openai.String(assistantName),
		Model:        shared.ChatModel(c.model),
		Instructions: openai.String(prompts.AssistantInstructions()),
		Tools: []openai.AssistantToolUnionParam{
			{OfFileSearch: &openai.FileSearchToolParam{}},
			{OfFunction: &openai.FunctionToolParam{
				Function: shared.FunctionDefinitionParam{
					Name:        recommendToolName,
					Description: openai.String(recommendToolDescription),
					Parameters:  recommendToolParameters,
				},
			}},
		},
		ToolResources: openai.BetaAssistantNewParamsToolResources{
			FileSearch: openai.BetaAssistantNewParamsToolResourcesFileSearch{
				VectorStoreIDs: []string{store.ID},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create assistant: %w", err)
	}
	c.logger.Info("created assistant", "assistant_id", asst.ID)

	return asst.ID, nil
}

// Teardown deletes the assistant, then every file in each of its bound
// vector stores, then the stores themselves. Each deletion is best-effort:
// failures are logged and the remaining resources are still attempted.
func (c *Client) Teardown(ctx context.Context, assistantID string) {
	asst, err := c.api.Beta.Assistants.Get(ctx, assistantID)
	if err != nil {
		c.logger.Error("failed to look up assistant for teardown", "assistant_id", assistantID, "error", err)
		return
	}

	storeIDs := asst.ToolResources.FileSearch.VectorStoreIDs
	c.logger.Info("tearing down assistant", "assistant_id", assistantID, "vector_stores", len(storeIDs))

	if _, err := c.api.Beta.Assistants.Delete(ctx, assistantID); err != nil {
		c.logger.Error("failed to delete assistant", "assistant_id", assistantID, "error", err)
	}

	for _, storeID := range storeIDs {
		c.deleteVectorStore(ctx, storeID)
	}
}

func (c *Client) deleteVectorStore(ctx context.Context, storeID string) {
	files, err := c.api.VectorStores.Files.List(ctx, storeID, openai.VectorStoreFileListParams{})
	if err != nil {
		c.logger.Error("failed to list vector store files", "vector_store_id", storeID, "error", err)
	} else {
		for _, f := range files.Data {
			if _, err := c.api.Files.Delete(ctx, f.ID); err != nil {
				c.logger.Error("failed to delete file", "file_id", f.ID, "error", err)
				continue
			}
			c.logger.Info("deleted file", "file_id", f.ID, "vector_store_id", storeID)
		}
	}

	if _, err := c.api.VectorStores.Delete(ctx, storeID); err != nil {
		c.logger.Error("failed to delete vector store", "vector_store_id", storeID, "error", err)
		return
	}
	c.logger.Info("deleted vector store", "vector_store_id", storeID)
}
