package kvstore

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dgraph-io/badger"
	"github.com/dgraph-io/badger/options"
	"go.uber.org/zap"
)

// Store keeps short-lived copies of guild members and messages so that leave
// and delete/edit notifications can report roles, join times and previous
// content after Discord has already discarded them.
type Store struct {
	db  *badger.DB
	log *zap.Logger
}

func NewStore(log *zap.Logger, dir string) (*Store, error) {
	s := &Store{
		log: log,
	}

	opts := badger.DefaultOptions(dir)
	opts.Truncate = true
	opts.ValueLogLoadingMode = options.FileIO
	opts.NumVersionsToKeep = 1
	db, err := badger.Open(opts)
	if err != nil {
		s.log.Error("failed to open store", zap.Error(err))
		return nil, err
	}
	s.db = db

	go func(s *Store) {
		gcTimer := time.NewTicker(time.Hour)
		for range gcTimer.C {
			err := s.db.RunValueLogGC(0.5)
			if err != nil && err != badger.ErrNoRewrite {
				s.log.Error("failed to run gc", zap.Error(err))
			}
		}
	}(s)

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func memberKey(gid, uid string) []byte {
	return []byte(fmt.Sprintf("member:%v:%v", gid, uid))
}

func messageKey(gid, cid, mid string) []byte {
	return []byte(fmt.Sprintf("message:%v:%v:%v", gid, cid, mid))
}

func (s *Store) SetMember(m *discordgo.Member) error {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(NewCachedMember(m))
	if err != nil {
		s.log.Error("failed to encode member", zap.Error(err))
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(memberKey(m.GuildID, m.User.ID), buf.Bytes())
	})
}

func (s *Store) GetMember(gid, uid string) (*CachedMember, error) {
	var body []byte
	if err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(memberKey(gid, uid))
		if err != nil {
			return err
		}
		body, err = item.ValueCopy(nil)
		return err
	}); err != nil {
		return nil, err
	}

	mem := &CachedMember{}
	err := gob.NewDecoder(bytes.NewReader(body)).Decode(mem)
	if err != nil {
		s.log.Error("failed to decode member", zap.Error(err))
		return nil, err
	}
	return mem, nil
}

func (s *Store) DeleteMember(gid, uid string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(memberKey(gid, uid))
	})
}

func (s *Store) SetMessage(msg *discordgo.Message) error {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(&CachedMessage{Message: msg})
	if err != nil {
		s.log.Error("failed to encode message", zap.Error(err))
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		e := &badger.Entry{
			Key:       messageKey(msg.GuildID, msg.ChannelID, msg.ID),
			Value:     buf.Bytes(),
			ExpiresAt: uint64(time.Now().Add(time.Hour * 24).Unix()),
		}
		return txn.SetEntry(e)
	})
}

func (s *Store) GetMessage(gid, cid, mid string) (*CachedMessage, error) {
	var body []byte
	if err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(messageKey(gid, cid, mid))
		if err != nil {
			return err
		}
		body, err = item.ValueCopy(nil)
		return err
	}); err != nil {
		return nil, err
	}

	msg := CachedMessage{}
	err := gob.NewDecoder(bytes.NewReader(body)).Decode(&msg)
	if err != nil {
		s.log.Error("failed to decode message", zap.Error(err))
		return nil, err
	}
	return &msg, nil
}
