package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gapnode/app"
	"gapnode/messages"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tendermint/tendermint/libs/log"
	"golang.org/x/sync/errgroup"
)

const defaultTimeout = 10 * time.Second

var (
	_ app.Indexer       = (*Client)(nil)
	_ app.Catalog       = (*Client)(nil)
	_ app.TrackAssigner = (*Client)(nil)
)

// StatusError is a non 2xx answer from the indexer.
type StatusError struct {
	Code    int
	Message string
}

func (err *StatusError) Error() string {
	return fmt.Sprintf("indexer answered %d: %s", err.Code, err.Message)
}

// ------------------------------------------------------------------------------------------------------------------- //
// CLIENT

type Client struct {
	baseURL string
	http    *http.Client
	logger  log.Logger
}

func NewClient(baseURL string, logger log.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  logger.With("module", "indexer-client"),
	}
}

func (client *Client) FetchProjectRecords(ctx context.Context, projectID string) (*messages.RecordSet, error) {
	var records messages.RecordSet
	if err := client.do(ctx, http.MethodGet, "/v1/projects/"+url.PathEscape(projectID)+"/records", nil, &records); err != nil {
		return nil, err
	}
	return &records, nil
}

func (client *Client) NotifyTransaction(ctx context.Context, txHash common.Hash, networkID uint64) error {
	return client.do(ctx, http.MethodPost, "/v1/transactions/notify", messages.Notification{TxHash: txHash, NetworkID: networkID}, nil)
}

func (client *Client) AssignTracks(ctx context.Context, projectID string, trackIDs []string, programID string) error {
	assignment := messages.TrackAssignment{ProgramID: programID, TrackIDs: trackIDs}
	return client.do(ctx, http.MethodPost, "/v1/projects/"+url.PathEscape(projectID)+"/tracks", assignment, nil)
}

func (client *Client) Communities(ctx context.Context) ([]messages.Community, error) {
	var communities []messages.Community
	err := client.do(ctx, http.MethodGet, "/v1/communities", nil, &communities)
	return communities, err
}

func (client *Client) Programs(ctx context.Context, communityID string) ([]messages.Program, error) {
	var programs []messages.Program
	err := client.do(ctx, http.MethodGet, "/v1/communities/"+url.PathEscape(communityID)+"/programs", nil, &programs)
	return programs, err
}

// Broadcast relays a signed transaction, it makes the client usable as the wallet's broadcaster.
func (client *Client) Broadcast(ctx context.Context, tx *messages.SignedTransaction) (*messages.Receipt, error) {
	var receipt messages.Receipt
	if err := client.do(ctx, http.MethodPost, "/v1/transactions", tx, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (client *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}
	request, err := http.NewRequestWithContext(ctx, method, client.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	response, err := client.http.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode >= http.StatusMultipleChoices {
		var answer struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(response.Body).Decode(&answer)
		client.logger.Debug("Request failed", "method", method, "path", path, "status", response.StatusCode)
		return &StatusError{Code: response.StatusCode, Message: answer.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(response.Body).Decode(out)
}

// ------------------------------------------------------------------------------------------------------------------- //
// CATALOG

// LoadCatalog fetches every community together with its programs, one request per community in parallel.
func LoadCatalog(ctx context.Context, catalog app.Catalog) ([]messages.Community, error) {
	communities, err := catalog.Communities(ctx)
	if err != nil {
		return nil, err
	}
	group, ctx := errgroup.WithContext(ctx)
	for i := range communities {
		community := &communities[i]
		group.Go(func() error {
			programs, err := catalog.Programs(ctx, community.ID)
			if err != nil {
				return fmt.Errorf("programs of %s: %w", community.ID, err)
			}
			community.Programs = programs
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return communities, nil
}

// FindCommunity returns the community with id from a loaded catalog.
func FindCommunity(communities []messages.Community, id string) (messages.Community, bool) {
	for _, community := range communities {
		if community.ID == id {
			return community, true
		}
	}
	return messages.Community{}, false
}
