package workers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/openhire/jobboard/internal/mailer"
	"github.com/openhire/jobboard/internal/models"
	"github.com/openhire/jobboard/internal/queue"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// MailWorkerPool drains the mail stream and hands each message to the
// dispatcher. Delivery outcomes (including retries) are the dispatcher's
// concern; the pool only acks what it consumed.
type MailWorkerPool struct {
	Redis      *redis.Client
	Dispatcher *mailer.Dispatcher
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *MailWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Dispatcher == nil {
		return errors.New("MailWorkerPool missing dependency: Redis/Dispatcher must be set")
	}
	if p.Stream == "" {
		p.Stream = queue.DefaultStream
	}
	if p.Group == "" {
		p.Group = "mail-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "m"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 3
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *MailWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *MailWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	kind := mailer.Kind(getStr("kind"))
	to := getStr("to")
	if kind == "" || to == "" {
		return
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id": msg.ID,
		"kind":     kind,
		"to":       to,
	})

	var (
		res *mailer.Result
		err error
	)
	switch kind {
	case mailer.KindWelcome:
		res, err = p.Dispatcher.Welcome(ctx, to, getStr("name"))
	case mailer.KindApplicationConfirmation:
		res, err = p.Dispatcher.ApplicationConfirmation(ctx, to,
			getStr("candidate_name"), getStr("job_title"), getStr("company_name"), getStr("application_id"))
	case mailer.KindStatusUpdate:
		res, err = p.Dispatcher.StatusUpdate(ctx, to,
			getStr("candidate_name"), getStr("job_title"), getStr("company_name"),
			models.Status(getStr("status")), getStr("notes"))
	case mailer.KindPasswordReset:
		res, err = p.Dispatcher.PasswordReset(ctx, to, getStr("name"), getStr("token"))
	case mailer.KindEmployerNewApplication:
		res, err = p.Dispatcher.EmployerNewApplication(ctx, to,
			getStr("employer_name"), getStr("candidate_name"), getStr("job_title"), getStr("application_id"))
	default:
		log.Warn("unknown mail kind, dropping")
		return
	}

	if err != nil {
		log.WithError(err).Error("mail delivery failed")
		return
	}
	log.WithFields(logrus.Fields{
		"outcome":    res.Outcome,
		"message_id": res.MessageID,
	}).Info("mail processed")
}
