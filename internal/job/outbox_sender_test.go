package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"investsystem/internal/model"
	"investsystem/internal/repository"
)

func seedOutboxMessage(t *testing.T, store repository.TxStore, id string) {
	t.Helper()
	err := repository.NewOutboxRepository(store).Append(context.Background(), nil, &model.OutboxMessage{
		ID:         id,
		MessageKey: "k-" + id,
		Topic:      "invest_events",
		Payload:    `{"event":"test"}`,
		Status:     model.OutboxStatusPending,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func outboxMessages(t *testing.T, store repository.TxStore) []*model.OutboxMessage {
	t.Helper()
	raw, ok, err := store.Get(context.Background(), model.DocKeyOutbox)
	if err != nil || !ok {
		t.Fatalf("读取 outbox 文档失败: ok=%v err=%v", ok, err)
	}
	var msgs []*model.OutboxMessage
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		t.Fatal(err)
	}
	return msgs
}

func TestOutboxSenderMarksSent(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	seedOutboxMessage(t, store, "m1")
	seedOutboxMessage(t, store, "m2")

	cfg := jobConfig()
	sender := NewOutboxSender(store, cfg)

	var sent []string
	sender.send = func(topic, key, value string) error {
		sent = append(sent, topic+"/"+key)
		return nil
	}

	sender.ProcessPending(ctx)

	if len(sent) != 2 {
		t.Fatalf("发送次数 = %d, want 2", len(sent))
	}
	for _, m := range outboxMessages(t, store) {
		if m.Status != model.OutboxStatusSent {
			t.Errorf("消息 %s 状态 = %q, want SENT", m.ID, m.Status)
		}
	}

	// 没有待发消息时不再调用 send
	sent = nil
	sender.ProcessPending(ctx)
	if len(sent) != 0 {
		t.Errorf("已发送的消息不应重发, 又发了 %d 次", len(sent))
	}
}

// 发送失败先重试，超过最大重试次数标记为失败
func TestOutboxSenderRetriesThenFails(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	seedOutboxMessage(t, store, "m1")

	cfg := jobConfig()
	cfg.Business.MaxRetryCount = 2
	sender := NewOutboxSender(store, cfg)
	sender.send = func(topic, key, value string) error {
		return errors.New("broker unavailable")
	}

	// 第一轮：重试计数 +1，仍是 PENDING
	sender.ProcessPending(ctx)
	msgs := outboxMessages(t, store)
	if msgs[0].Status != model.OutboxStatusPending || msgs[0].RetryCount != 1 {
		t.Fatalf("首轮后 status=%q retry=%d, want PENDING/1", msgs[0].Status, msgs[0].RetryCount)
	}

	// 第二轮：达到上限，标记失败
	sender.ProcessPending(ctx)
	msgs = outboxMessages(t, store)
	if msgs[0].Status != model.OutboxStatusFailed {
		t.Fatalf("次轮后 status=%q, want FAILED", msgs[0].Status)
	}

	// 失败的消息不再投递
	var called bool
	sender.send = func(topic, key, value string) error {
		called = true
		return nil
	}
	sender.ProcessPending(ctx)
	if called {
		t.Error("FAILED 消息不应再被投递")
	}
}
