package job

import (
	"context"
	"log"
	"time"

	"investsystem/internal/config"
	"investsystem/internal/infrastructure/mq"
	"investsystem/internal/model"
	"investsystem/internal/repository"
)

// OutboxSender 把 outbox 里待投递的业务事件发往 Kafka
// 消息在业务事务内落库，这里异步投递并推进状态，超过最大重试次数标记失败
type OutboxSender struct {
	outboxRepo *repository.OutboxRepository
	cfg        *config.Config
	stopCh     chan struct{}
	interval   time.Duration
	batchSize  int
	send       func(topic, key, value string) error
}

func NewOutboxSender(store repository.TxStore, cfg *config.Config) *OutboxSender {
	return &OutboxSender{
		outboxRepo: repository.NewOutboxRepository(store),
		cfg:        cfg,
		stopCh:     make(chan struct{}),
		interval:   time.Second,
		batchSize:  100,
		send:       mq.SendMessage,
	}
}

func (s *OutboxSender) Start(ctx context.Context) {
	log.Println("[OutboxSender] 消息发送任务启动")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[OutboxSender] 收到停止信号，任务退出")
			return
		case <-s.stopCh:
			log.Println("[OutboxSender] 任务停止")
			return
		case <-ticker.C:
			s.ProcessPending(ctx)
		}
	}
}

func (s *OutboxSender) Stop() {
	close(s.stopCh)
}

// ProcessPending 投递一批待发送消息
func (s *OutboxSender) ProcessPending(ctx context.Context) {
	messages, err := s.outboxRepo.GetPending(ctx, nil, s.batchSize)
	if err != nil {
		log.Printf("[OutboxSender] 查询消息失败: %v", err)
		return
	}

	for _, msg := range messages {
		s.sendMessage(ctx, msg)
	}
}

func (s *OutboxSender) sendMessage(ctx context.Context, msg *model.OutboxMessage) {
	if err := s.send(msg.Topic, msg.MessageKey, msg.Payload); err != nil {
		log.Printf("[OutboxSender] 消息发送失败: id=%s, err=%v", msg.ID, err)

		if msg.RetryCount+1 >= s.cfg.Business.MaxRetryCount {
			if err := s.outboxRepo.MarkFailed(ctx, nil, msg.ID); err != nil {
				log.Printf("[OutboxSender] 标记消息失败状态失败: id=%s, err=%v", msg.ID, err)
			} else {
				log.Printf("[OutboxSender] 消息超过最大重试次数，标记为失败: id=%s", msg.ID)
			}
			return
		}
		if err := s.outboxRepo.IncrementRetry(ctx, nil, msg.ID); err != nil {
			log.Printf("[OutboxSender] 增加重试次数失败: id=%s, err=%v", msg.ID, err)
		}
		return
	}

	if err := s.outboxRepo.MarkSent(ctx, nil, msg.ID); err != nil {
		log.Printf("[OutboxSender] 更新消息状态失败: id=%s, err=%v", msg.ID, err)
	} else {
		log.Printf("[OutboxSender] 消息发送成功: id=%s, topic=%s, key=%s", msg.ID, msg.Topic, msg.MessageKey)
	}
}
