package cluster

import (
	"sort"
	"sync"

	"clusterpipe/hooks"
	"clusterpipe/topology"
	"clusterpipe/wire"
)

type pendingItem struct {
	submissionIndex int
	request         RawRequest
	nodeID          topology.NodeID
}

type completedItem struct {
	submissionIndex int
	request         RawRequest
	reply           wire.Reply
	nodeID          topology.NodeID
}

// evaluatePipeline is the non-transactional evaluator of section 4.7: it
// groups the batch by target node, dispatches each group, reassembles
// replies in submission order, and applies redirection retry per reply.
func (c *Connection) evaluatePipeline(queue []RawRequest, refresh RefreshFunc) ([]wire.Reply, error) {
	requestID := hooks.RequestID()
	n := len(queue)
	sm := c.shardMap.Get()

	groups := make(map[topology.NodeID][]pendingItem)
	var order []topology.NodeID
	for i, req := range queue {
		conns, err := c.nodeConnectionsFor(sm, req)
		if err != nil {
			return nil, err
		}
		for _, nc := range conns {
			if _, seen := groups[nc.ID]; !seen {
				order = append(order, nc.ID)
			}
			groups[nc.ID] = append(groups[nc.ID], pendingItem{
				submissionIndex: i,
				request:         req,
				nodeID:          nc.ID,
			})
		}
	}

	completed, err := c.dispatchGroups(sm, order, groups, requestID)
	if err != nil {
		return nil, err
	}

	movedSeen := false
	for _, item := range completed {
		if isMoved(item.reply) {
			movedSeen = true
			break
		}
	}
	if movedSeen && refresh != nil {
		refresh()
		c.afterRefresh()
		c.hooksImpl.ShardMapRefreshed(requestID)
	}

	byIndex := make(map[int][]completedItem)
	for _, item := range completed {
		retried, err := c.retryBatch(requestID, []RawRequest{item.request}, []wire.Reply{item.reply}, refresh, 0)
		if err != nil {
			return nil, err
		}
		item.reply = retried[0]
		byIndex[item.submissionIndex] = append(byIndex[item.submissionIndex], item)
	}

	results := make([]wire.Reply, n)
	for idx, items := range byIndex {
		if len(items) == 1 {
			results[idx] = items[0].reply
			continue
		}
		sort.Slice(items, func(i, j int) bool { return items[i].nodeID < items[j].nodeID })
		arr := make([]wire.Reply, len(items))
		for i, it := range items {
			arr[i] = it.reply
		}
		results[idx] = wire.Reply{Kind: wire.Array, Array: arr}
	}
	return results, nil
}

// dispatchGroups sends each node's group of requests concurrently and
// returns every completion. Per-node ordering is preserved; there is no
// ordering requirement between nodes.
func (c *Connection) dispatchGroups(sm *topology.ShardMap, order []topology.NodeID, groups map[topology.NodeID][]pendingItem, requestID string) ([]completedItem, error) {
	var wg sync.WaitGroup
	results := make([][]completedItem, len(order))
	errs := make([]error, len(order))

	for gi, id := range order {
		nc, ok := c.getNodeConn(id)
		if !ok {
			return nil, ErrMissingNode
		}
		items := groups[id]
		wg.Add(1)
		go func(gi int, nc *NodeConnection, items []pendingItem) {
			defer wg.Done()
			reqs := make([]RawRequest, len(items))
			for i, it := range items {
				reqs[i] = it.request
			}
			c.hooksImpl.BatchFlushed(requestID, nc.Addr, len(reqs))
			replies, err := nc.requestNode(reqs)
			if err != nil {
				errs[gi] = err
				return
			}
			out := make([]completedItem, len(items))
			for i, it := range items {
				out[i] = completedItem{
					submissionIndex: it.submissionIndex,
					request:         it.request,
					reply:           replies[i],
					nodeID:          it.nodeID,
				}
			}
			results[gi] = out
		}(gi, nc, items)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	var all []completedItem
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

// evaluateTransaction is the transaction evaluator of section 4.8: it
// validates single-slot routing across the whole MULTI..EXEC batch, sends
// it as one per-node pipeline, and retries the entire batch on MOVED.
func (c *Connection) evaluateTransaction(queue []RawRequest, refresh RefreshFunc) ([]wire.Reply, error) {
	requestID := hooks.RequestID()
	keys, err := c.collectKeys(queue)
	if err != nil {
		return nil, err
	}
	slot, err := slotForKeys(keys)
	if err != nil {
		return nil, err
	}

	sm := c.shardMap.Get()
	shard := sm.ShardForSlot(slot)
	nc, found := c.getNodeConn(shard.Master.ID)
	if !found {
		return nil, ErrMissingNode
	}

	c.hooksImpl.BatchFlushed(requestID, nc.Addr, len(queue))
	replies, err := nc.requestNode(queue)
	if err != nil {
		return nil, err
	}

	if len(replies) > 0 && isMoved(replies[len(replies)-1]) {
		if refresh != nil {
			refresh()
			c.afterRefresh()
			c.hooksImpl.ShardMapRefreshed(requestID)
		}
	}

	if len(replies) > 0 && isTryAgain(replies[len(replies)-1]) {
		return replies, nil
	}
	return c.retryBatch(requestID, queue, replies, refresh, 0)
}
