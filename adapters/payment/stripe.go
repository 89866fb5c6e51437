package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// Operator 包裝付款服務，為出價者預先保存付款方式
// 只負責建立 SetupIntent，實際的卡片收集由前端以 client secret 完成
type Operator struct {
	sc *client.API
}

func NewOperator(secretKey string) (*Operator, error) {
	if secretKey == "" {
		return nil, errors.New("secret key cannot be empty")
	}
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &Operator{sc: sc}, nil
}

// SetupIntent 是建立預授權流程所需回傳給前端的資訊
type SetupIntent struct {
	ClientSecret string
	CustomerID   string
}

// CreateSetupIntent 以信箱尋找既有客戶（不存在就建立），
// 並為該客戶建立一個保存卡片用的 SetupIntent
func (o *Operator) CreateSetupIntent(ctx context.Context, email string) (*SetupIntent, error) {
	const op = "CreateSetupIntent"

	listParams := &stripe.CustomerListParams{Email: stripe.String(email)}
	listParams.Context = ctx
	listParams.Limit = stripe.Int64(1)
	iter := o.sc.Customers.List(listParams)

	var customer *stripe.Customer
	if iter.Next() {
		customer = iter.Customer()
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("[%s] Fail to list customers, err=%w", op, err)
	}
	if customer == nil {
		created, err := o.sc.Customers.New(&stripe.CustomerParams{
			Params: stripe.Params{Context: ctx},
			Email:  stripe.String(email),
		})
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to create customer, err=%w", op, err)
		}
		customer = created
	}

	intent, err := o.sc.SetupIntents.New(&stripe.SetupIntentParams{
		Params:             stripe.Params{Context: ctx},
		Customer:           stripe.String(customer.ID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	})
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create setup intent, err=%w", op, err)
	}

	return &SetupIntent{
		ClientSecret: intent.ClientSecret,
		CustomerID:   customer.ID,
	}, nil
}
