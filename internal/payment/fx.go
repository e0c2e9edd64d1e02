package payment

import (
	"github.com/brightfold/portal/internal/payment/razorpay"
	"github.com/brightfold/portal/internal/payment/repository"
	"github.com/brightfold/portal/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(razorpay.NewClient),
	fx.Provide(service.NewCheckoutService),
	fx.Provide(service.NewWebhookService),
)
