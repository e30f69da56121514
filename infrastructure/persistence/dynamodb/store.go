// Package dynamodb implements the graph and cluster stores on a single
// DynamoDB table. Key layout:
//
//	PK = MEETING#<meetingID>
//	SK = NODE#<nodeID> | CLUSTER#<clusterID> | MEMBER#<clusterID>#<nodeID>
//
// GSI1 indexes nodes by parent for child lookups:
//
//	GSI1PK = MEETING#<meetingID>#PARENT#<parentID>
//	GSI1SK = <CreatedAt RFC3339Nano>
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"meetmap-backend/application/ports"
	"meetmap-backend/domain/graph"
	"meetmap-backend/domain/vector"
	apperrors "meetmap-backend/pkg/errors"
	"meetmap-backend/pkg/observability"
	"meetmap-backend/pkg/utils"
)

const (
	gsi1Name = "GSI1"

	skNodePrefix    = "NODE#"
	skClusterPrefix = "CLUSTER#"
	skMemberPrefix  = "MEMBER#"
)

// API is the slice of the DynamoDB client the store uses. The concrete
// *dynamodb.Client satisfies it.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// Store implements ports.GraphStore and ports.ClusterStore on DynamoDB.
type Store struct {
	client       API
	tableName    string
	embeddingDim int
	logger       *zap.Logger
}

var (
	_ ports.GraphStore   = (*Store)(nil)
	_ ports.ClusterStore = (*Store)(nil)
)

// NewStore creates a DynamoDB-backed store. When metrics is non-nil
// every client call is counted and timed.
func NewStore(client API, tableName string, embeddingDim int, logger *zap.Logger, metrics *observability.Collector) *Store {
	if metrics != nil {
		client = &instrumentedAPI{api: client, metrics: metrics}
	}
	return &Store{
		client:       client,
		tableName:    tableName,
		embeddingDim: embeddingDim,
		logger:       logger,
	}
}

// instrumentedAPI decorates the DynamoDB client with per-call counters
// and latency histograms.
type instrumentedAPI struct {
	api     API
	metrics *observability.Collector
}

func (c *instrumentedAPI) observe(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.metrics.DBOperations.WithLabelValues(operation, status).Inc()
	c.metrics.DBDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (c *instrumentedAPI) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	start := time.Now()
	out, err := c.api.GetItem(ctx, params, optFns...)
	c.observe("GetItem", start, err)
	return out, err
}

func (c *instrumentedAPI) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	start := time.Now()
	out, err := c.api.PutItem(ctx, params, optFns...)
	c.observe("PutItem", start, err)
	return out, err
}

func (c *instrumentedAPI) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	start := time.Now()
	out, err := c.api.Query(ctx, params, optFns...)
	c.observe("Query", start, err)
	return out, err
}

func (c *instrumentedAPI) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	start := time.Now()
	out, err := c.api.UpdateItem(ctx, params, optFns...)
	c.observe("UpdateItem", start, err)
	return out, err
}

func (c *instrumentedAPI) BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	start := time.Now()
	out, err := c.api.BatchWriteItem(ctx, params, optFns...)
	c.observe("BatchWriteItem", start, err)
	return out, err
}

func meetingPK(meetingID string) string {
	return "MEETING#" + meetingID
}

func nodeSK(nodeID string) string {
	return skNodePrefix + nodeID
}

func clusterSK(clusterID int) string {
	return fmt.Sprintf("%s%06d", skClusterPrefix, clusterID)
}

func memberSK(clusterID int, nodeID string) string {
	return fmt.Sprintf("%s%06d#%s", skMemberPrefix, clusterID, nodeID)
}

func parentGSI1PK(meetingID, parentID string) string {
	return "MEETING#" + meetingID + "#PARENT#" + parentID
}

type nodeItem struct {
	PK          string            `dynamodbav:"PK"`
	SK          string            `dynamodbav:"SK"`
	GSI1PK      string            `dynamodbav:"GSI1PK,omitempty"`
	GSI1SK      string            `dynamodbav:"GSI1SK,omitempty"`
	EntityType  string            `dynamodbav:"EntityType"`
	NodeID      string            `dynamodbav:"NodeID"`
	MeetingID   string            `dynamodbav:"MeetingID"`
	Summary     string            `dynamodbav:"Summary"`
	Embedding   []float64         `dynamodbav:"Embedding"`
	ParentID    string            `dynamodbav:"ParentID"`
	Depth       int               `dynamodbav:"Depth"`
	ClusterID   *int              `dynamodbav:"ClusterID,omitempty"`
	ChunkID     string            `dynamodbav:"ChunkID,omitempty"`
	Speaker     string            `dynamodbav:"Speaker,omitempty"`
	StartTime   float64           `dynamodbav:"StartTime,omitempty"`
	EndTime     float64           `dynamodbav:"EndTime,omitempty"`
	IsRoot      bool              `dynamodbav:"IsRoot"`
	Extra       map[string]string `dynamodbav:"Extra,omitempty"`
	CreatedAt   string            `dynamodbav:"CreatedAt"`
	LastUpdated string            `dynamodbav:"LastUpdated"`
}

type clusterItem struct {
	PK          string    `dynamodbav:"PK"`
	SK          string    `dynamodbav:"SK"`
	EntityType  string    `dynamodbav:"EntityType"`
	ClusterID   int       `dynamodbav:"ClusterID"`
	MeetingID   string    `dynamodbav:"MeetingID"`
	Centroid    []float64 `dynamodbav:"Centroid"`
	MemberCount int       `dynamodbav:"MemberCount"`
	UpdatedAt   string    `dynamodbav:"UpdatedAt"`
}

type memberItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	ClusterID  int    `dynamodbav:"ClusterID"`
	NodeID     string `dynamodbav:"NodeID"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
}

func nodeToItem(n *graph.Node) nodeItem {
	item := nodeItem{
		PK:          meetingPK(n.MeetingID),
		SK:          nodeSK(n.ID),
		EntityType:  "NODE",
		NodeID:      n.ID,
		MeetingID:   n.MeetingID,
		Summary:     n.Summary,
		Embedding:   n.Embedding,
		ParentID:    n.ParentID,
		Depth:       n.Depth,
		ClusterID:   n.ClusterID,
		ChunkID:     n.Metadata.ChunkID,
		Speaker:     n.Metadata.Speaker,
		StartTime:   n.Metadata.StartTime,
		EndTime:     n.Metadata.EndTime,
		IsRoot:      n.Metadata.IsRoot,
		Extra:       n.Metadata.Extra,
		CreatedAt:   utils.FormatTimestamp(n.CreatedAt),
		LastUpdated: utils.FormatTimestamp(n.LastUpdated),
	}
	if n.ParentID != "" {
		item.GSI1PK = parentGSI1PK(n.MeetingID, n.ParentID)
		item.GSI1SK = item.CreatedAt
	}
	return item
}

func itemToNode(item nodeItem) *graph.Node {
	createdAt, _ := utils.ParseTimestamp(item.CreatedAt)
	lastUpdated, _ := utils.ParseTimestamp(item.LastUpdated)
	return &graph.Node{
		ID:          item.NodeID,
		MeetingID:   item.MeetingID,
		Embedding:   item.Embedding,
		Summary:     item.Summary,
		ParentID:    item.ParentID,
		Depth:       item.Depth,
		ClusterID:   item.ClusterID,
		CreatedAt:   createdAt,
		LastUpdated: lastUpdated,
		Metadata: graph.Metadata{
			ChunkID:   item.ChunkID,
			Speaker:   item.Speaker,
			StartTime: item.StartTime,
			EndTime:   item.EndTime,
			IsRoot:    item.IsRoot,
			Extra:     item.Extra,
		},
	}
}

// GetNode fetches a single node by id.
func (s *Store) GetNode(ctx context.Context, meetingID, nodeID string) (*graph.Node, error) {
	if meetingID == "" {
		return nil, apperrors.NewTenantRequired("GetNode")
	}

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: meetingPK(meetingID)},
			"SK": &types.AttributeValueMemberS{Value: nodeSK(nodeID)},
		},
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("GetNode", err)
	}
	if out.Item == nil {
		return nil, apperrors.NewNodeNotFound(nodeID, meetingID)
	}

	var item nodeItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, apperrors.NewDatabaseError("GetNode unmarshal", err)
	}
	return itemToNode(item), nil
}

// GetRoot returns the meeting root, creating it with a conditional put
// if absent. The condition makes creation idempotent across concurrent
// callers and retries.
func (s *Store) GetRoot(ctx context.Context, meetingID string) (*graph.Node, error) {
	if meetingID == "" {
		return nil, apperrors.NewTenantRequired("GetRoot")
	}

	root, err := s.GetNode(ctx, meetingID, graph.RootNodeID)
	if err == nil {
		return root, nil
	}
	if !apperrors.IsNodeNotFound(err) {
		return nil, err
	}

	fresh := graph.NewRootNode(meetingID, s.embeddingDim, time.Now())
	av, err := attributevalue.MarshalMap(nodeToItem(fresh))
	if err != nil {
		return nil, apperrors.NewDatabaseError("GetRoot marshal", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			// lost the race, the root now exists
			return s.GetNode(ctx, meetingID, graph.RootNodeID)
		}
		return nil, apperrors.NewDatabaseError("GetRoot create", err)
	}

	s.logger.Info("created meeting root",
		zap.String("meetingID", meetingID),
	)
	return fresh, nil
}

// GetChildren queries GSI1 for a node's direct children in creation
// order.
func (s *Store) GetChildren(ctx context.Context, meetingID, nodeID string) ([]*graph.Node, error) {
	if meetingID == "" {
		return nil, apperrors.NewTenantRequired("GetChildren")
	}

	keyCond := expression.Key("GSI1PK").Equal(expression.Value(parentGSI1PK(meetingID, nodeID)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, apperrors.NewDatabaseError("GetChildren expression", err)
	}

	children := []*graph.Node{}
	var lastKey map[string]types.AttributeValue
	for {
		out, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(s.tableName),
			IndexName:                 aws.String(gsi1Name),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			return nil, apperrors.NewDatabaseError("GetChildren query", err)
		}

		var items []nodeItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return nil, apperrors.NewDatabaseError("GetChildren unmarshal", err)
		}
		for _, item := range items {
			children = append(children, itemToNode(item))
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		lastKey = out.LastEvaluatedKey
	}
	return children, nil
}

// GetAllNodes queries the partition for every node, returned in
// creation order.
func (s *Store) GetAllNodes(ctx context.Context, meetingID string) ([]*graph.Node, error) {
	if meetingID == "" {
		return nil, apperrors.NewTenantRequired("GetAllNodes")
	}

	items, err := s.queryPartition(ctx, meetingID, skNodePrefix)
	if err != nil {
		return nil, err
	}

	nodes := make([]*graph.Node, 0, len(items))
	for _, raw := range items {
		var item nodeItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, apperrors.NewDatabaseError("GetAllNodes unmarshal", err)
		}
		nodes = append(nodes, itemToNode(item))
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].CreatedAt.Before(nodes[j].CreatedAt)
	})
	return nodes, nil
}

// AddNode resolves the parent, derives depth, and writes the new node.
func (s *Store) AddNode(ctx context.Context, meetingID string, params ports.NewNodeParams) (*graph.Node, error) {
	if meetingID == "" {
		return nil, apperrors.NewTenantRequired("AddNode")
	}

	parent, err := s.GetNode(ctx, meetingID, params.ParentID)
	if err != nil {
		if apperrors.IsNodeNotFound(err) {
			return nil, apperrors.NewParentNotFound(params.ParentID, meetingID)
		}
		return nil, err
	}

	now := time.Now()
	node := &graph.Node{
		ID:          params.NodeID,
		MeetingID:   meetingID,
		Embedding:   vector.Clone(params.Embedding),
		Summary:     params.Summary,
		ParentID:    parent.ID,
		Depth:       parent.Depth + 1,
		CreatedAt:   now,
		LastUpdated: now,
		Metadata:    params.Metadata,
	}

	av, err := attributevalue.MarshalMap(nodeToItem(node))
	if err != nil {
		return nil, apperrors.NewDatabaseError("AddNode marshal", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, apperrors.NewConflictError("node id already exists: " + params.NodeID)
		}
		return nil, apperrors.NewDatabaseError("AddNode put", err)
	}

	s.logger.Debug("added node",
		zap.String("meetingID", meetingID),
		zap.String("nodeID", node.ID),
		zap.String("parentID", node.ParentID),
		zap.Int("depth", node.Depth),
	)
	return node, nil
}

// SetNodeCluster updates only cluster_id and last_updated.
func (s *Store) SetNodeCluster(ctx context.Context, meetingID, nodeID string, clusterID int) error {
	if meetingID == "" {
		return apperrors.NewTenantRequired("SetNodeCluster")
	}

	update := expression.Set(expression.Name("ClusterID"), expression.Value(clusterID)).
		Set(expression.Name("LastUpdated"), expression.Value(utils.FormatTimestamp(time.Now())))
	cond := expression.AttributeExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return apperrors.NewDatabaseError("SetNodeCluster expression", err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: meetingPK(meetingID)},
			"SK": &types.AttributeValueMemberS{Value: nodeSK(nodeID)},
		},
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return apperrors.NewNodeNotFound(nodeID, meetingID)
		}
		return apperrors.NewDatabaseError("SetNodeCluster update", err)
	}
	return nil
}

// Reset deletes every item in the meeting's partition in batches.
func (s *Store) Reset(ctx context.Context, meetingID string) error {
	if meetingID == "" {
		return apperrors.NewTenantRequired("Reset")
	}

	items, err := s.queryPartition(ctx, meetingID, "")
	if err != nil {
		return err
	}

	const batchSize = 25
	for start := 0; start < len(items); start += batchSize {
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}

		requests := make([]types.WriteRequest, 0, end-start)
		for _, raw := range items[start:end] {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{
					Key: map[string]types.AttributeValue{
						"PK": raw["PK"],
						"SK": raw["SK"],
					},
				},
			})
		}

		_, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				s.tableName: requests,
			},
		})
		if err != nil {
			return apperrors.NewDatabaseError("Reset batch delete", err)
		}
	}

	s.logger.Info("reset meeting",
		zap.String("meetingID", meetingID),
		zap.Int("itemsDeleted", len(items)),
	)
	return nil
}

// GetClusters returns the meeting's clusters ordered by id. The zero
// padded sort key yields the ordering for free.
func (s *Store) GetClusters(ctx context.Context, meetingID string) ([]*graph.Cluster, error) {
	if meetingID == "" {
		return nil, apperrors.NewTenantRequired("GetClusters")
	}

	items, err := s.queryPartition(ctx, meetingID, skClusterPrefix)
	if err != nil {
		return nil, err
	}

	clusters := make([]*graph.Cluster, 0, len(items))
	for _, raw := range items {
		var item clusterItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, apperrors.NewDatabaseError("GetClusters unmarshal", err)
		}
		updatedAt, _ := utils.ParseTimestamp(item.UpdatedAt)
		clusters = append(clusters, &graph.Cluster{
			ID:          item.ClusterID,
			MeetingID:   item.MeetingID,
			Centroid:    item.Centroid,
			MemberCount: item.MemberCount,
			UpdatedAt:   updatedAt,
		})
	}
	return clusters, nil
}

// SaveCluster writes the cluster item, overwriting any previous state.
func (s *Store) SaveCluster(ctx context.Context, meetingID string, cluster *graph.Cluster) error {
	if meetingID == "" {
		return apperrors.NewTenantRequired("SaveCluster")
	}

	item := clusterItem{
		PK:          meetingPK(meetingID),
		SK:          clusterSK(cluster.ID),
		EntityType:  "CLUSTER",
		ClusterID:   cluster.ID,
		MeetingID:   meetingID,
		Centroid:    cluster.Centroid,
		MemberCount: cluster.MemberCount,
		UpdatedAt:   utils.FormatTimestamp(time.Now()),
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.NewDatabaseError("SaveCluster marshal", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return apperrors.NewDatabaseError("SaveCluster put", err)
	}
	return nil
}

// AddMember writes a membership item; rewrites are harmless.
func (s *Store) AddMember(ctx context.Context, meetingID string, clusterID int, nodeID string) error {
	if meetingID == "" {
		return apperrors.NewTenantRequired("AddMember")
	}

	item := memberItem{
		PK:         meetingPK(meetingID),
		SK:         memberSK(clusterID, nodeID),
		EntityType: "CLUSTER_MEMBER",
		ClusterID:  clusterID,
		NodeID:     nodeID,
		CreatedAt:  utils.FormatTimestamp(time.Now()),
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.NewDatabaseError("AddMember marshal", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return apperrors.NewDatabaseError("AddMember put", err)
	}
	return nil
}

// GetMembers lists a cluster's member node ids.
func (s *Store) GetMembers(ctx context.Context, meetingID string, clusterID int) ([]string, error) {
	if meetingID == "" {
		return nil, apperrors.NewTenantRequired("GetMembers")
	}

	prefix := fmt.Sprintf("%s%06d#", skMemberPrefix, clusterID)
	items, err := s.queryPartition(ctx, meetingID, prefix)
	if err != nil {
		return nil, err
	}

	members := make([]string, 0, len(items))
	for _, raw := range items {
		var item memberItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, apperrors.NewDatabaseError("GetMembers unmarshal", err)
		}
		members = append(members, item.NodeID)
	}
	return members, nil
}

// NextClusterID derives max(cluster_id)+1 from the stored cluster items.
// Reading the tail of the zero padded CLUSTER# range gives the max.
func (s *Store) NextClusterID(ctx context.Context, meetingID string) (int, error) {
	if meetingID == "" {
		return 0, apperrors.NewTenantRequired("NextClusterID")
	}

	keyCond := expression.Key("PK").Equal(expression.Value(meetingPK(meetingID))).
		And(expression.Key("SK").BeginsWith(skClusterPrefix))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return 0, apperrors.NewDatabaseError("NextClusterID expression", err)
	}

	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return 0, apperrors.NewDatabaseError("NextClusterID query", err)
	}
	if len(out.Items) == 0 {
		return 0, nil
	}

	var item clusterItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &item); err != nil {
		return 0, apperrors.NewDatabaseError("NextClusterID unmarshal", err)
	}
	return item.ClusterID + 1, nil
}

// queryPartition pages through one meeting partition, optionally
// restricted to a sort key prefix.
func (s *Store) queryPartition(ctx context.Context, meetingID, skPrefix string) ([]map[string]types.AttributeValue, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(meetingPK(meetingID)))
	if skPrefix != "" {
		keyCond = keyCond.And(expression.Key("SK").BeginsWith(skPrefix))
	}
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, apperrors.NewDatabaseError("queryPartition expression", err)
	}

	var items []map[string]types.AttributeValue
	var lastKey map[string]types.AttributeValue
	for {
		out, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(s.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			return nil, apperrors.NewDatabaseError("queryPartition query", err)
		}
		items = append(items, out.Items...)
		if out.LastEvaluatedKey == nil {
			break
		}
		lastKey = out.LastEvaluatedKey
	}
	return items, nil
}
