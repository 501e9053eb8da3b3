package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/model"
	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/parse"
	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/remote"
)

// tsvFeedParser parses the flat master-data feed: one tab-separated line
// per item, `supplier<TAB>item<TAB>unit`. Blank lines and lines starting
// with '#' are skipped. Ids are derived from normalized names so repeated
// syncs of the same feed produce identical records.
//
// The feed carries master data only; it never carries orders.
type tsvFeedParser struct{}

func (tsvFeedParser) Parse(raw string) (remote.FeedData, error) {
	var data remote.FeedData
	supplierIDs := make(map[string]string)
	now := time.Now().Truncate(time.Millisecond)

	for i, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return remote.FeedData{}, fmt.Errorf("feed line %d: expected supplier<TAB>item[<TAB>unit], got %q", i+1, line)
		}
		supplierName := strings.TrimSpace(fields[0])
		itemName := strings.TrimSpace(fields[1])
		unit := "pcs"
		if len(fields) >= 3 && strings.TrimSpace(fields[2]) != "" {
			unit = strings.TrimSpace(fields[2])
		}

		supKey := parse.NormalizeName(supplierName)
		supID, ok := supplierIDs[supKey]
		if !ok {
			supID = "feed:" + supKey
			supplierIDs[supKey] = supID
			data.Suppliers = append(data.Suppliers, model.Supplier{
				ID:         supID,
				Name:       supplierName,
				ModifiedAt: now,
			})
		}

		data.Items = append(data.Items, model.Item{
			ID:           "feed:" + supKey + ":" + parse.NormalizeName(itemName),
			Name:         itemName,
			Unit:         unit,
			SupplierID:   supID,
			SupplierName: supplierName,
			CreatedAt:    now,
			ModifiedAt:   now,
		})
	}
	return data, nil
}
