package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/embarkmaps/regiond/geo"
)

// networkNode and networkEdge are the builder's input records, shared by the
// JSON file schema and the Mongo document payloads.
type networkNode struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

type networkEdge struct {
	From     int32       `json:"from" bson:"from"`
	To       int32       `json:"to" bson:"to"`
	LengthM  float64     `json:"length_m" bson:"length_m"`
	SpeedMPS float64     `json:"speed_mps" bson:"speed_mps"`
	Oneway   bool        `json:"oneway" bson:"oneway"`
	Geometry []geo.Point `json:"geometry" bson:"geometry"`
}

type network struct {
	Nodes []networkNode `json:"nodes"`
	Edges []networkEdge `json:"edges"`
}

func loadNetworkFile(path string) (*network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read network file: %w", err)
	}
	var net network
	if err := json.Unmarshal(data, &net); err != nil {
		return nil, fmt.Errorf("parse network file: %w", err)
	}
	return &net, nil
}

// loadNetworkMongo pulls node and edge documents from one collection,
// distinguished by their class field.
func loadNetworkMongo(uri string, path *Path) (*network, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	defer client.Disconnect(context.Background())
	coll := client.Database(path.DB).Collection(path.Coll)

	net := &network{}

	nodeCur, err := coll.Find(ctx, bson.M{"class": "node"}, options.Find().SetSort(bson.M{"data.id": 1}))
	if err != nil {
		return nil, fmt.Errorf("find nodes: %w", err)
	}
	defer nodeCur.Close(ctx)
	for nodeCur.Next(ctx) {
		var doc struct {
			Data networkNode `bson:"data"`
		}
		if err := nodeCur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode node: %w", err)
		}
		net.Nodes = append(net.Nodes, doc.Data)
	}
	if err := nodeCur.Err(); err != nil {
		return nil, err
	}

	edgeCur, err := coll.Find(ctx, bson.M{"class": "edge"})
	if err != nil {
		return nil, fmt.Errorf("find edges: %w", err)
	}
	defer edgeCur.Close(ctx)
	for edgeCur.Next(ctx) {
		var doc struct {
			Data networkEdge `bson:"data"`
		}
		if err := edgeCur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode edge: %w", err)
		}
		net.Edges = append(net.Edges, doc.Data)
	}
	if err := edgeCur.Err(); err != nil {
		return nil, err
	}
	return net, nil
}
