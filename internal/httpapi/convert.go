package httpapi

import (
	"time"

	"aigateway/internal/chat"
	"aigateway/internal/gateway"
	"aigateway/internal/storage"
	"aigateway/pkg/types"
)

var startTime = time.Now()

func toMessage(m storage.Message) types.Message {
	return types.Message{
		ID:        m.ID,
		SessionID: m.SessionID,
		Seq:       m.Seq,
		Author:    string(m.Author),
		Text:      m.Text,
		Kind:      string(m.Kind),
		Chart:     string(m.Chart),
		Reason:    string(m.Reason),
		Timestamp: m.Timestamp,
	}
}

func toMessages(in []storage.Message) []types.Message {
	out := make([]types.Message, 0, len(in))
	for _, m := range in {
		out = append(out, toMessage(m))
	}
	return out
}

// ToQueryResponse renders an exchange as the API payload.
func ToQueryResponse(ex chat.Exchange) types.QueryResponse {
	res := ex.Result
	out := types.QueryResponse{
		Kind:     string(res.Kind),
		Text:     res.Text,
		Chart:    string(res.Chart),
		Reason:   string(res.Reason),
		Intent:   string(res.Intent.Kind),
		Question: toMessage(ex.Question),
		Answer:   toMessage(ex.Answer),
	}
	if res.Data != nil {
		out.Data = make([]types.ChartPoint, 0, len(res.Data.Points))
		for _, p := range res.Data.Points {
			out.Data = append(out.Data, types.ChartPoint{Label: p.Label, Value: p.Value})
		}
	}
	return out
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// ToStatus renders a status snapshot as the API payload.
func ToStatus(s gateway.StatusSnapshot) types.StatusResponse {
	out := types.StatusResponse{
		Connected:       s.Connected,
		ActiveEndpoint:  s.ActiveEndpoint,
		ModelPresent:    s.ModelPresent,
		RequiredModel:   s.RequiredModel,
		InstalledModels: s.InstalledModels,
		ModelCheckedAt:  timePtr(s.ModelCheckedAt),
		LastError:       s.LastError,
		LastReason:      string(s.LastReason),
		LastErrorAt:     timePtr(s.LastErrorAt),
		Endpoints:       make([]types.EndpointStatus, 0, len(s.Endpoints)),
		RecentEvents:    make([]types.StatusEvent, 0, len(s.Recent)),
		UptimeSeconds:   int64(time.Since(startTime).Seconds()),
		ServerTimeUnix:  time.Now().Unix(),
	}
	for _, v := range s.Endpoints {
		out.Endpoints = append(out.Endpoints, types.EndpointStatus{
			Address:       v.Endpoint.Address,
			Status:        v.Endpoint.Status.String(),
			LastCheckedAt: timePtr(v.Endpoint.LastCheckedAt),
			LastLatencyMs: v.Endpoint.LastLatencyMs,
			Trust:         v.Trust,
			Failures:      v.Failures,
			Demoted:       v.Demoted,
			Active:        v.Active,
		})
	}
	for _, e := range s.Recent {
		from, _ := e.Fields["from"].(string)
		out.RecentEvents = append(out.RecentEvents, types.StatusEvent{
			Name:      e.Name,
			From:      from,
			Call:      e.Call,
			SessionID: e.SessionID,
			At:        e.At,
		})
	}
	return out
}
