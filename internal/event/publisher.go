package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"orderledger/internal/domain/model"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
)

// ブローカーのproducer。どちらのエラーも呼び出し側へ返す
type Producer interface {
	Send(ctx context.Context, topic string, value []byte) error
	Flush(ctx context.Context) error
}

// どこへ書いたか
type Sink string

const (
	SinkProducer Sink = "producer"
	SinkFileLog  Sink = "file_log"
)

// topicはファイル名にもなるので安全な文字だけ
var topicPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

var ErrInvalidTopic = errors.New("invalid topic")

// 記録できなかった出荷イベント
type PublishError struct {
	Topic string
	Sink  Sink
	Err   error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish to %s via %s: %v", e.Topic, e.Sink, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

type Message struct {
	ID      string          `json:"id"`
	Topic   string          `json:"topic"`
	Sink    Sink            `json:"sink"`
	Payload ShipmentPayload `json:"payload"`
}

// モード（producer / 追記ログ）は生成時に決める。呼び出しごとにnil判定はしない
type Publisher struct {
	topic    string
	sink     Sink
	producer Producer
	fileLog  *FileLog
	logger   *log.Logger
}

func NewProducerPublisher(topic string, producer Producer, logger *log.Logger) (*Publisher, error) {
	if err := validateTopic(topic); err != nil {
		return nil, err
	}
	if producer == nil {
		return nil, errors.New("producer is required")
	}
	return &Publisher{
		topic:    topic,
		sink:     SinkProducer,
		producer: producer,
		logger:   orDefault(logger),
	}, nil
}

// ブローカーがないときの縮退モード
func NewFileLogPublisher(topic string, dir string, logger *log.Logger) (*Publisher, error) {
	if err := validateTopic(topic); err != nil {
		return nil, err
	}
	if dir == "" {
		dir = "."
	}
	return &Publisher{
		topic:   topic,
		sink:    SinkFileLog,
		fileLog: NewFileLog(dir, topic),
		logger:  orDefault(logger),
	}, nil
}

func orDefault(logger *log.Logger) *log.Logger {
	if logger == nil {
		return log.New("event")
	}
	return logger
}

func validateTopic(topic string) error {
	if !topicPattern.MatchString(topic) || topic == "." || topic == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}
	return nil
}

func (p *Publisher) Topic() string { return p.topic }
func (p *Publisher) Sink() Sink    { return p.sink }

// 追記ログのパス（producerモードでは空）
func (p *Publisher) LogPath() string {
	if p.fileLog == nil {
		return ""
	}
	return p.fileLog.Path()
}

// 明細込みの注文を1件のイベントとして記録する
func (p *Publisher) PublishShipment(ctx context.Context, order model.Order) (Message, error) {
	msg := Message{
		ID:      uuid.NewString(),
		Topic:   p.topic,
		Sink:    p.sink,
		Payload: NewShipmentPayload(order),
	}

	body, err := json.Marshal(msg.Payload)
	if err != nil {
		return Message{}, p.fail(err)
	}

	switch p.sink {
	case SinkProducer:
		if err := p.producer.Send(ctx, p.topic, body); err != nil {
			return Message{}, p.fail(fmt.Errorf("send: %w", err))
		}
		//flushが返るまで成功扱いにしない
		if err := p.producer.Flush(ctx); err != nil {
			return Message{}, p.fail(fmt.Errorf("flush: %w", err))
		}
	case SinkFileLog:
		if err := p.fileLog.Append(body); err != nil {
			return Message{}, p.fail(err)
		}
	default:
		return Message{}, p.fail(fmt.Errorf("unknown sink %q", p.sink))
	}

	p.logger.Infoj(log.JSON{
		"event":      "order_shipped",
		"message_id": msg.ID,
		"topic":      p.topic,
		"sink":       string(p.sink),
		"order_id":   order.ID,
	})
	return msg, nil
}

func (p *Publisher) fail(err error) error {
	p.logger.Errorj(log.JSON{
		"event": "publish_failed",
		"topic": p.topic,
		"sink":  string(p.sink),
		"error": err.Error(),
	})
	return &PublishError{Topic: p.topic, Sink: p.sink, Err: err}
}
