package main

import (
	"log"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"

	"github.com/medledger/prescription-chain/contracts"
)

func main() {
	prescriptionContract := new(contracts.PrescriptionContract)

	chaincode, err := contractapi.NewChaincode(prescriptionContract)
	if err != nil {
		log.Panicf("Error creating prescription chaincode: %v", err)
	}

	if err := chaincode.Start(); err != nil {
		log.Panicf("Error starting prescription chaincode: %v", err)
	}
}
