package model

import (
	"fmt"
	"time"
)

// CommentDateLayout задаёт формат даты комментария в ответах API.
const CommentDateLayout = "2006-01-02 15:04:05"

// Vote описывает тип голоса за комментарий.
type Vote string

// Допустимые голоса.
const (
	VoteLike    Vote = "like"
	VoteDislike Vote = "dislike"
)

// Valid сообщает, является ли голос одним из допустимых.
func (v Vote) Valid() bool {
	return v == VoteLike || v == VoteDislike
}

// Comment представляет отзыв пользователя о товаре и голоса за него.
type Comment struct {
	id          int64
	userEmail   string
	username    string
	commodityID string
	text        string
	date        time.Time
	like        int
	dislike     int
	userVote    map[string]Vote
}

// NewComment создаёт комментарий. Дата создания фиксируется в момент вызова.
func NewComment(id int64, userEmail, username, commodityID, text string) *Comment {
	return &Comment{
		id:          id,
		userEmail:   userEmail,
		username:    username,
		commodityID: commodityID,
		text:        text,
		date:        time.Now(),
		userVote:    make(map[string]Vote),
	}
}

// ID возвращает идентификатор комментария.
func (c *Comment) ID() int64 { return c.id }

// UserEmail возвращает почту автора.
func (c *Comment) UserEmail() string { return c.userEmail }

// Username возвращает имя автора.
func (c *Comment) Username() string { return c.username }

// CommodityID возвращает идентификатор товара.
func (c *Comment) CommodityID() string { return c.commodityID }

// Text возвращает текст комментария.
func (c *Comment) Text() string { return c.text }

// Date возвращает время создания.
func (c *Comment) Date() time.Time { return c.date }

// Like возвращает число голосов like.
func (c *Comment) Like() int { return c.like }

// Dislike возвращает число голосов dislike.
func (c *Comment) Dislike() int { return c.dislike }


// FormattedDate возвращает дату создания в формате CommentDateLayout.
func (c *Comment) FormattedDate() string {
	return c.date.Format(CommentDateLayout)
}

// UserVotes возвращает копию голосов пользователей.
func (c *Comment) UserVotes() map[string]Vote {
	out := make(map[string]Vote, len(c.userVote))
	for k, v := range c.userVote {
		out[k] = v
	}
	return out
}

// AddUserVote учитывает голос пользователя. У пользователя не больше одного голоса:
// смена типа переносит голос между счётчиками, повтор того же типа ничего не меняет.
func (c *Comment) AddUserVote(username string, vote Vote) error {
	if !vote.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidVote, vote)
	}

	prev, voted := c.userVote[username]
	if voted && prev == vote {
		return nil
	}

	if voted {
		c.retract(prev)
	}
	c.userVote[username] = vote
	if vote == VoteLike {
		c.like++
	} else {
		c.dislike++
	}
	return nil
}

func (c *Comment) retract(v Vote) {
	if v == VoteLike {
		c.like--
		return
	}
	c.dislike--
}

// CommentRecord содержит плоское представление комментария для хранения и импорта.
type CommentRecord struct {
	ID          int64           `json:"id" yaml:"id"`
	UserEmail   string          `json:"userEmail" yaml:"userEmail"`
	Username    string          `json:"username" yaml:"username"`
	CommodityID string          `json:"commodityId" yaml:"commodityId"`
	Text        string          `json:"text" yaml:"text"`
	Date        time.Time       `json:"date" yaml:"date"`
	UserVote    map[string]Vote `json:"userVote,omitempty" yaml:"userVote,omitempty"`
}

// Record возвращает снимок состояния комментария. Счётчики выводятся из голосов.
func (c *Comment) Record() CommentRecord {
	return CommentRecord{
		ID:          c.id,
		UserEmail:   c.userEmail,
		Username:    c.username,
		CommodityID: c.commodityID,
		Text:        c.text,
		Date:        c.date,
		UserVote:    c.UserVotes(),
	}
}

// RestoreComment восстанавливает комментарий из снимка и пересчитывает счётчики.
func RestoreComment(rec CommentRecord) (*Comment, error) {
	c := &Comment{
		id:          rec.ID,
		userEmail:   rec.UserEmail,
		username:    rec.Username,
		commodityID: rec.CommodityID,
		text:        rec.Text,
		date:        rec.Date,
		userVote:    make(map[string]Vote, len(rec.UserVote)),
	}
	if c.date.IsZero() {
		c.date = time.Now()
	}

	for user, vote := range rec.UserVote {
		if err := c.AddUserVote(user, vote); err != nil {
			return nil, fmt.Errorf("restore comment %d: %w", rec.ID, ErrInvalidRecord)
		}
	}
	return c, nil
}
