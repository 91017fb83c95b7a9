package errs_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sabouaram/uacore/errs"
)

var _ = Describe("CodeError", func() {
	It("stringifies known codes", func() {
		Expect(errs.BadNotFound.String()).To(Equal("not found"))
		Expect(errs.BadInvalidArgument.String()).To(Equal("invalid argument"))
	})

	It("falls back to unknown for unregistered codes", func() {
		Expect(errs.CodeError(9999).String()).To(Equal("unknown error"))
	})
})

var _ = Describe("Error", func() {
	It("reports its own code via IsCode", func() {
		e := errs.New(errs.BadNotFound, "timer id 7", nil)
		Expect(e.IsCode(errs.BadNotFound)).To(BeTrue())
		Expect(e.IsCode(errs.BadInternalError)).To(BeFalse())
	})

	It("walks parents via HasCode", func() {
		root := errs.New(errs.BadConnectionClosed, "recv", nil)
		wrap := errs.New(errs.BadInternalError, "loop dispatch", root)

		Expect(wrap.HasCode(errs.BadInternalError)).To(BeTrue())
		Expect(wrap.HasCode(errs.BadConnectionClosed)).To(BeTrue())
		Expect(wrap.HasCode(errs.BadNotFound)).To(BeFalse())
	})

	It("supports errors.Is/As through Unwrap", func() {
		sentinel := errors.New("eagain")
		wrap := errs.Wrap(errs.BadConnectionClosed, sentinel)

		Expect(errors.Is(wrap, sentinel)).To(BeTrue())

		var e errs.Error
		Expect(errors.As(wrap, &e)).To(BeTrue())
		Expect(e.Code()).To(Equal(errs.BadConnectionClosed))
	})

	It("exposes a free HasCode helper for foreign errors", func() {
		plain := errors.New("boom")
		Expect(errs.HasCode(plain, errs.BadNotFound)).To(BeFalse())

		wrapped := errs.New(errs.BadNotFound, "", nil)
		Expect(errs.HasCode(wrapped, errs.BadNotFound)).To(BeTrue())
	})
})
