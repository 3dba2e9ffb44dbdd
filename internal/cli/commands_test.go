package cli_test

import (
	"testing"

	"github.com/calvinalkan/fqueue/internal/cli"
)

func Test_Create_Then_Len_Is_Zero_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("create", "orders")

	stdout := c.MustRun("len", "orders")
	cli.AssertContains(t, stdout, "0")
}

func Test_Create_Duplicate_Fails_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("create", "orders")

	stderr := c.MustFail("create", "orders")
	cli.AssertContains(t, stderr, "already exists")
}

func Test_Enqueue_Then_Dequeue_Round_Trips_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("create", "orders")
	c.MustRun("enqueue", "orders", "hello")

	stdout := c.MustRun("len", "orders")
	cli.AssertContains(t, stdout, "1")

	stdout = c.MustRun("dequeue", "orders")
	cli.AssertContains(t, stdout, "hello")

	stdout = c.MustRun("len", "orders")
	cli.AssertContains(t, stdout, "0")
}

func Test_Dequeue_Empty_Queue_Fails_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("create", "orders")

	stderr := c.MustFail("dequeue", "orders")
	cli.AssertContains(t, stderr, "is empty")
}

func Test_Seek_Without_Random_Access_Fails_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("create", "orders")
	c.MustRun("enqueue", "orders", "hello")

	stderr := c.MustFail("seek", "orders", "head")
	cli.AssertContains(t, stderr, "not seekable")
}

func Test_Seek_And_Show_With_Random_Access_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("create", "orders", "--random-access")
	c.MustRun("enqueue", "orders", "first")
	c.MustRun("enqueue", "orders", "second")

	c.MustRun("seek", "orders", "head")
	stdout := c.MustRun("show", "orders")
	cli.AssertContains(t, stdout, "first")
}

func Test_Destroy_Removes_Queue_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("create", "orders")
	c.MustRun("destroy", "orders")

	stderr := c.MustFail("len", "orders")
	cli.AssertContains(t, stderr, "does not exist")
}

func Test_Destroy_Missing_Queue_Is_Idempotent_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("destroy", "never-created")
}

func Test_Enqueue_Oversized_Entry_Fails_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("create", "orders", "--max-entry-size=4")

	stderr := c.MustFail("enqueue", "orders", "way too long")
	cli.AssertContains(t, stderr, "invalid argument")
}
