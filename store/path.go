package store

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidPath = errors.New("invalid collection path")

// CollectionPath addresses a shared collection:
// artifacts/{appId}/public/data/{collectionName}.
type CollectionPath struct {
	AppID      string
	Collection string
}

func NewCollectionPath(appID, collection string) CollectionPath {
	return CollectionPath{AppID: appID, Collection: collection}
}

func (p CollectionPath) String() string {
	return fmt.Sprintf("artifacts/%s/public/data/%s", p.AppID, p.Collection)
}

func ParseCollectionPath(raw string) (CollectionPath, error) {
	parts := strings.Split(strings.Trim(raw, "/"), "/")
	if len(parts) != 5 || parts[0] != "artifacts" || parts[2] != "public" || parts[3] != "data" {
		return CollectionPath{}, fmt.Errorf("%w: %q", ErrInvalidPath, raw)
	}
	if parts[1] == "" || parts[4] == "" {
		return CollectionPath{}, fmt.Errorf("%w: %q", ErrInvalidPath, raw)
	}
	return CollectionPath{AppID: parts[1], Collection: parts[4]}, nil
}
