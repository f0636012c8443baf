package provider

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"assistui/config"
	"assistui/model"
)

const DefaultBaseURL = "https://api.openai.com/v1"

// OpenAIRemote implements model.Remote against the OpenAI Assistants API
// using the official OpenAI Go SDK.
type OpenAIRemote struct {
	client  openai.Client
	baseURL string
}

// Options configures NewOpenAIRemote.
type Options struct {
	BaseURL string
	// RequestTimeout bounds each request attempt; zero keeps the transport default.
	RequestTimeout time.Duration
	// Extra is appended to the client options (tests use it for custom HTTP clients).
	Extra []option.RequestOption
}

// NewOpenAIRemote creates a client for apiKey. Failed calls are never retried.
func NewOpenAIRemote(apiKey string, opts Options) (*OpenAIRemote, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	reqOpts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if opts.RequestTimeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.RequestTimeout))
	}
	reqOpts = append(reqOpts, opts.Extra...)

	return &OpenAIRemote{
		client:  openai.NewClient(reqOpts...),
		baseURL: baseURL,
	}, nil
}

// Factory returns a constructor bound to opts, matching session.RemoteFactory.
func Factory(opts Options) func(apiKey string) (model.Remote, error) {
	return func(apiKey string) (model.Remote, error) {
		r, err := NewOpenAIRemote(apiKey, opts)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}

// CheckKey lists models, which succeeds only with a valid key.
func (r *OpenAIRemote) CheckKey(ctx context.Context) error {
	if _, err := r.client.Models.List(ctx); err != nil {
		return fmt.Errorf("OpenAI key check failed: %w", err)
	}
	if config.Debug && config.DebugLog != nil {
		config.DebugLog.Printf("[OpenAI] Key check OK (%s)", r.baseURL)
	}
	return nil
}

func (r *OpenAIRemote) ListAssistants(ctx context.Context, order string, limit int) ([]model.AssistantRecord, error) {
	params := openai.BetaAssistantListParams{
		Order: openai.BetaAssistantListParamsOrderDesc,
	}
	if order == "asc" {
		params.Order = openai.BetaAssistantListParamsOrderAsc
	}
	if limit > 0 {
		params.Limit = openai.Int(int64(limit))
	}

	page, err := r.client.Beta.Assistants.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list assistants: %w", err)
	}

	out := make([]model.AssistantRecord, 0, len(page.Data))
	for _, a := range page.Data {
		out = append(out, convertAssistant(a))
	}
	return out, nil
}

func (r *OpenAIRemote) CreateAssistant(ctx context.Context, spec model.AssistantSpec) (model.AssistantRecord, error) {
	params := openai.BetaAssistantNewParams{
		Model: openai.ChatModel(spec.Model),
		Tools: toolParams(spec.Tools),
	}
	if spec.Name != "" {
		params.Name = openai.String(spec.Name)
	}
	if spec.Instructions != "" {
		params.Instructions = openai.String(spec.Instructions)
	}
	if len(spec.VectorStoreIDs) > 0 {
		params.ToolResources = openai.BetaAssistantNewParamsToolResources{
			FileSearch: openai.BetaAssistantNewParamsToolResourcesFileSearch{
				VectorStoreIDs: spec.VectorStoreIDs,
			},
		}
	}

	a, err := r.client.Beta.Assistants.New(ctx, params)
	if err != nil {
		return model.AssistantRecord{}, fmt.Errorf("failed to create assistant: %w", err)
	}
	return convertAssistant(*a), nil
}

func (r *OpenAIRemote) GetAssistant(ctx context.Context, assistantID string) (model.AssistantRecord, error) {
	a, err := r.client.Beta.Assistants.Get(ctx, assistantID)
	if err != nil {
		return model.AssistantRecord{}, fmt.Errorf("failed to retrieve assistant %s: %w", assistantID, err)
	}
	return convertAssistant(*a), nil
}

func (r *OpenAIRemote) UpdateAssistantVectorStores(ctx context.Context, assistant model.AssistantRecord, vectorStoreIDs []string) (model.AssistantRecord, error) {
	tools := assistant.Tools
	if !assistant.HasTool(model.ToolFileSearch) {
		tools = append(append([]string{}, tools...), model.ToolFileSearch)
	}

	params := openai.BetaAssistantUpdateParams{
		Tools: toolParams(tools),
		ToolResources: openai.BetaAssistantUpdateParamsToolResources{
			FileSearch: openai.BetaAssistantUpdateParamsToolResourcesFileSearch{
				VectorStoreIDs: append([]string{}, vectorStoreIDs...),
			},
		},
	}

	a, err := r.client.Beta.Assistants.Update(ctx, assistant.ID, params)
	if err != nil {
		return model.AssistantRecord{}, fmt.Errorf("failed to update assistant %s: %w", assistant.ID, err)
	}
	return convertAssistant(*a), nil
}

func (r *OpenAIRemote) DeleteAssistant(ctx context.Context, assistantID string) error {
	if _, err := r.client.Beta.Assistants.Delete(ctx, assistantID); err != nil {
		return fmt.Errorf("failed to delete assistant %s: %w", assistantID, err)
	}
	return nil
}

func (r *OpenAIRemote) CreateThread(ctx context.Context) (string, error) {
	th, err := r.client.Beta.Threads.New(ctx, openai.BetaThreadNewParams{})
	if err != nil {
		return "", fmt.Errorf("failed to create thread: %w", err)
	}
	return th.ID, nil
}

func (r *OpenAIRemote) PostMessage(ctx context.Context, threadID, text, attachFileID string) error {
	params := openai.BetaThreadMessageNewParams{
		Content: openai.BetaThreadMessageNewParamsContentUnion{OfString: openai.String(text)},
		Role:    openai.BetaThreadMessageNewParamsRoleUser,
	}
	if attachFileID != "" {
		params.Attachments = []openai.BetaThreadMessageNewParamsAttachment{{
			FileID: openai.String(attachFileID),
			Tools: []openai.BetaThreadMessageNewParamsAttachmentToolUnion{{
				OfFileSearch: &openai.BetaThreadMessageNewParamsAttachmentToolFileSearch{},
			}},
		}}
	}

	if _, err := r.client.Beta.Threads.Messages.New(ctx, threadID, params); err != nil {
		return fmt.Errorf("failed to post message: %w", err)
	}
	return nil
}

// StreamRun starts a streaming run. Extra instructions are appended to the
// assistant's own rather than replacing them.
func (r *OpenAIRemote) StreamRun(ctx context.Context, threadID, assistantID, instructions string) (model.EventStream, error) {
	params := openai.BetaThreadRunNewParams{
		AssistantID: assistantID,
	}
	if instructions != "" {
		params.AdditionalInstructions = openai.String(instructions)
	}

	//nolint:staticcheck // the Assistants API is deprecated upstream but still served
	stream := r.client.Beta.Threads.Runs.NewStreaming(ctx, threadID, params)
	if err := stream.Err(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	return newRunStream(stream), nil
}

func (r *OpenAIRemote) CreateVectorStore(ctx context.Context, name string) (model.VectorStoreRecord, error) {
	vs, err := r.client.VectorStores.New(ctx, openai.VectorStoreNewParams{
		Name: openai.String(name),
	})
	if err != nil {
		return model.VectorStoreRecord{}, fmt.Errorf("failed to create vector store: %w", err)
	}
	return convertVectorStore(*vs), nil
}

func (r *OpenAIRemote) GetVectorStore(ctx context.Context, vectorStoreID string) (model.VectorStoreRecord, error) {
	vs, err := r.client.VectorStores.Get(ctx, vectorStoreID)
	if err != nil {
		return model.VectorStoreRecord{}, fmt.Errorf("failed to retrieve vector store %s: %w", vectorStoreID, err)
	}
	return convertVectorStore(*vs), nil
}

func (r *OpenAIRemote) DeleteVectorStore(ctx context.Context, vectorStoreID string) error {
	if _, err := r.client.VectorStores.Delete(ctx, vectorStoreID); err != nil {
		return fmt.Errorf("failed to delete vector store %s: %w", vectorStoreID, err)
	}
	return nil
}

// UploadFilesToVectorStore uploads the files and polls the batch until it
// is no longer in progress.
func (r *OpenAIRemote) UploadFilesToVectorStore(ctx context.Context, vectorStoreID string, paths []string) (model.FileBatch, error) {
	if len(paths) == 0 {
		return model.FileBatch{}, fmt.Errorf("no files to upload")
	}

	files := make([]openai.FileNewParams, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			closeAll(files)
			return model.FileBatch{}, fmt.Errorf("failed to open %s: %w", p, err)
		}
		files = append(files, openai.FileNewParams{
			File:    f,
			Purpose: openai.FilePurposeAssistants,
		})
	}
	defer closeAll(files)

	batch, err := r.client.VectorStores.FileBatches.UploadAndPoll(ctx, vectorStoreID, files, nil, 0)
	if err != nil {
		return model.FileBatch{}, fmt.Errorf("failed to upload files: %w", err)
	}

	if config.Debug && config.DebugLog != nil {
		config.DebugLog.Printf("[OpenAI] Batch %s for %s finished: %s", batch.ID, vectorStoreID, batch.Status)
	}
	return convertFileBatch(*batch), nil
}

func closeAll(files []openai.FileNewParams) {
	for _, f := range files {
		if c, ok := f.File.(*os.File); ok {
			c.Close()
		}
	}
}

func (r *OpenAIRemote) ListVectorStoreFileIDs(ctx context.Context, vectorStoreID string) ([]string, error) {
	iter := r.client.VectorStores.Files.ListAutoPaging(ctx, vectorStoreID, openai.VectorStoreFileListParams{})

	ids := []string{}
	for iter.Next() {
		ids = append(ids, iter.Current().ID)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list vector store files: %w", err)
	}
	return ids, nil
}

func (r *OpenAIRemote) DeleteVectorStoreFile(ctx context.Context, vectorStoreID, fileID string) error {
	if _, err := r.client.VectorStores.Files.Delete(ctx, vectorStoreID, fileID); err != nil {
		return fmt.Errorf("failed to remove file %s from vector store: %w", fileID, err)
	}
	return nil
}

func (r *OpenAIRemote) UploadFile(ctx context.Context, path string) (model.FileRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.FileRecord{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	obj, err := r.client.Files.New(ctx, openai.FileNewParams{
		File:    openai.File(f, filepath.Base(path), ""),
		Purpose: openai.FilePurposeAssistants,
	})
	if err != nil {
		return model.FileRecord{}, fmt.Errorf("failed to upload file: %w", err)
	}
	return convertFile(*obj), nil
}

func (r *OpenAIRemote) GetFile(ctx context.Context, fileID string) (model.FileRecord, error) {
	obj, err := r.client.Files.Get(ctx, fileID)
	if err != nil {
		return model.FileRecord{}, fmt.Errorf("failed to retrieve file %s: %w", fileID, err)
	}
	return convertFile(*obj), nil
}

func (r *OpenAIRemote) DeleteFile(ctx context.Context, fileID string) error {
	if _, err := r.client.Files.Delete(ctx, fileID); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", fileID, err)
	}
	return nil
}
