package transfer

import (
	v "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/maheshrc27/creatoraide/internal/models"
)

type DraftCreation struct {
	IdeaID    *int64 `json:"idea_id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Hook      string `json:"hook"`
	Structure string `json:"structure"`
	Audio     string `json:"audio"`
	Visual    string `json:"visual"`
	CTA       string `json:"cta"`
	Status    string `json:"status"`
}

func (d DraftCreation) Validate() error {
	return v.ValidateStruct(&d,
		v.Field(&d.Title, v.Required, v.Length(1, 200)),
		v.Field(&d.Status, v.In(models.DraftStatusDraft, models.DraftStatusReady, models.DraftStatusArchived)),
	)
}

type DraftUpdate struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	Hook      *string `json:"hook"`
	Structure *string `json:"structure"`
	Audio     *string `json:"audio"`
	Visual    *string `json:"visual"`
	CTA       *string `json:"cta"`
	Status    *string `json:"status"`
}

func (d DraftUpdate) Validate() error {
	return v.ValidateStruct(&d,
		v.Field(&d.Title, v.NilOrNotEmpty, v.Length(1, 200)),
		v.Field(&d.Status, v.NilOrNotEmpty, v.In(models.DraftStatusDraft, models.DraftStatusReady, models.DraftStatusArchived)),
	)
}

type ApiKeyCreated struct {
	ID     int64  `json:"id"`
	ApiKey string `json:"api_key"`
}
