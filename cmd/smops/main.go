// Smops - SageMaker MLOps operator CLI
// Submit. Approve. Watch.
package main

func main() {
	Execute()
}
